package format

import (
	"context"
	"testing"

	"github.com/jpfielding/media.go/pkg/codec/ogg"
	"github.com/jpfielding/media.go/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"qoi", QOI},
		{".JPG", JPEG},
		{"jpeg", JPEG},
		{"wav", WAV},
		{".aifc", AIFF},
		{"aif", AIFF},
		{"snd", AU},
		{"au", AU},
		{".ogg", OGG},
	}
	for _, tt := range tests {
		f, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, f, tt.in)
	}
	_, err := Parse("png")
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)

	f, err := FromPath("/tmp/x/song.AIFF")
	require.NoError(t, err)
	assert.Equal(t, AIFF, f)
}

func TestStringAndKind(t *testing.T) {
	for _, f := range All {
		p, err := Parse(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, p)
	}
	assert.Equal(t, KindImage, QOI.Kind())
	assert.Equal(t, KindAudio, AU.Kind())
	assert.Equal(t, KindContainer, OGG.Kind())
	assert.Equal(t, KindUnknown, Unknown.Kind())
	assert.Equal(t, "audio", WAV.Kind().String())
	assert.Equal(t, "unknown", Format(99).String())
}

func samples() (map[Format][]byte, error) {
	img := media.NewImage(4, 4)
	for i := range img.Data {
		img.Data[i] = byte(i * 3)
	}
	for i := 3; i < len(img.Data); i += 4 {
		img.Data[i] = 255
	}
	snd := media.NewAudio(2, 16, 8000)
	snd.Samples[0][3] = 0.5

	out := map[Format][]byte{}
	for _, f := range []Format{QOI, JPEG} {
		c, err := Image(f, Options{})
		if err != nil {
			return nil, err
		}
		if out[f], err = c.Encode(img); err != nil {
			return nil, err
		}
	}
	for _, f := range []Format{WAV, AIFF, AU} {
		c, err := Audio(f, Options{})
		if err != nil {
			return nil, err
		}
		if out[f], err = c.Encode(snd); err != nil {
			return nil, err
		}
	}
	page, err := ogg.BuildPage([]byte("x"), 1, 0, ogg.FlagBOS|ogg.FlagEOS, 0)
	if err != nil {
		return nil, err
	}
	out[OGG] = page
	return out, nil
}

func TestDetect(t *testing.T) {
	data, err := samples()
	require.NoError(t, err)
	for f, b := range data {
		assert.Equal(t, f, Detect(b), f.String())
	}
	assert.Equal(t, Unknown, Detect([]byte{0, 0, 0, 0}))
	assert.Equal(t, Unknown, Detect(nil))
}

func TestCodecs(t *testing.T) {
	_, err := Image(WAV, Options{})
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)
	_, err = Audio(QOI, Options{})
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)
	_, err = Audio(AIFF, Options{MuLaw: true})
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)

	c, err := Audio(AU, Options{BitsPerSample: 24})
	require.NoError(t, err)
	assert.Equal(t, AU, c.Format())
	enc, err := c.Encode(media.NewAudio(1, 100, 8000))
	require.NoError(t, err)
	assert.True(t, c.CanDecode(enc))
	info, err := c.Probe(enc)
	require.NoError(t, err)
	assert.Equal(t, 24, info.BitsPerSample)
	assert.Equal(t, 100, info.Frames)

	ic, err := Image(QOI, Options{Linear: true})
	require.NoError(t, err)
	enc, err = ic.Encode(media.NewImage(2, 2))
	require.NoError(t, err)
	assert.Equal(t, byte(1), enc[13])
}

func TestDecodeAll(t *testing.T) {
	data, err := samples()
	require.NoError(t, err)
	items := []Item{
		{"a.qoi", data[QOI]},
		{"b.jpg", data[JPEG]},
		{"c.wav", data[WAV]},
		{"d.aiff", data[AIFF]},
		{"e.au", data[AU]},
		{"f.ogg", data[OGG]},
		{"g.bin", []byte("garbage")},
	}
	results := DecodeAll(context.Background(), items)
	require.Len(t, results, len(items))
	for i, r := range results {
		assert.Equal(t, items[i].Name, r.Name)
	}
	for _, r := range results[:2] {
		require.NoError(t, r.Err, r.Name)
		assert.Equal(t, 4, r.Image.Width)
	}
	for _, r := range results[2:5] {
		require.NoError(t, r.Err, r.Name)
		assert.Equal(t, 2, r.Audio.Channels)
		assert.InDelta(t, 0.5, r.Audio.Samples[0][3], 0.001)
	}
	assert.ErrorIs(t, results[5].Err, media.ErrUnsupportedFeature)
	assert.Equal(t, OGG, results[5].Format)
	assert.ErrorIs(t, results[6].Err, media.ErrInvalidSignature)
}

func TestDecodeAll_Canceled(t *testing.T) {
	data, err := samples()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := DecodeAll(ctx, []Item{{"a", data[QOI]}, {"b", data[WAV]}})
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
