package wav

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/jpfielding/media.go/pkg/binio"
	"github.com/jpfielding/media.go/pkg/codec/pcm"
	"github.com/jpfielding/media.go/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(channels, frames, rate int) *media.AudioData {
	a := media.NewAudio(channels, frames, rate)
	for c := range a.Samples {
		for i := range a.Samples[c] {
			a.Samples[c][i] = 0.8 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)+float64(c))
		}
	}
	return a
}

func tolerance(bits int) float64 {
	switch bits {
	case 8:
		return 0.05
	case 16:
		return 0.0005
	}
	return 0.000005
}

func assertClose(t *testing.T, want, got *media.AudioData, delta float64) {
	t.Helper()
	require.Equal(t, want.Channels, got.Channels)
	require.Equal(t, want.SampleRate, got.SampleRate)
	require.Len(t, got.Samples, len(want.Samples))
	for c := range want.Samples {
		require.Len(t, got.Samples[c], len(want.Samples[c]))
		for i := range want.Samples[c] {
			require.InDelta(t, want.Samples[c][i], got.Samples[c][i], delta, "channel %d sample %d", c, i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, bits := range []int{8, 16, 24, 32} {
		for _, rate := range []int{8000, 22050, 44100, 48000, 96000} {
			for _, channels := range []int{1, 2, 4} {
				t.Run(fmt.Sprintf("%dbit/%dHz/%dch", bits, rate, channels), func(t *testing.T) {
					src := sine(channels, 101, rate)
					enc, err := Encode(src, Options{BitsPerSample: bits})
					require.NoError(t, err)
					assert.Zero(t, len(enc)%2)
					dec, err := Decode(enc)
					require.NoError(t, err)
					assertClose(t, src, dec, tolerance(bits))
				})
			}
		}
	}
}

func TestRoundTrip_Float(t *testing.T) {
	src := sine(2, 50, 44100)
	src.Samples[0][0] = 1.25 // floats are not clamped

	enc, err := Encode(src, Options{Float: true})
	require.NoError(t, err)
	info, err := Probe(enc)
	require.NoError(t, err)
	assert.Equal(t, 32, info.BitsPerSample)
	dec, err := Decode(enc)
	require.NoError(t, err)
	assertClose(t, src, dec, 1e-6)

	enc, err = Encode(src, Options{Float: true, BitsPerSample: 64})
	require.NoError(t, err)
	dec, err = Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, src.Samples, dec.Samples)
}

func TestRoundTrip_MuLaw(t *testing.T) {
	src := sine(1, 200, 8000)
	enc, err := Encode(src, Options{MuLaw: true})
	require.NoError(t, err)
	assert.Len(t, enc, 44+200)
	dec, err := Decode(enc)
	require.NoError(t, err)
	assertClose(t, src, dec, 0.035)
}

func TestEncode_EightBitIsUnsigned(t *testing.T) {
	enc, err := Encode(media.NewAudio(1, 1, 8000), Options{BitsPerSample: 8})
	require.NoError(t, err)
	// 44-byte header, one sample, one pad byte
	require.Len(t, enc, 46)
	assert.Equal(t, byte(128), enc[44])
}

func TestEncode_Header(t *testing.T) {
	src := &media.AudioData{Samples: [][]float64{{0.5}, {-0.5}}, SampleRate: 48000, Channels: 2}
	enc, err := Encode(src, Options{})
	require.NoError(t, err)
	r := binio.NewReader(enc)
	tag, _ := r.Tag()
	assert.Equal(t, "RIFF", tag)
	size, _ := r.U32LE()
	assert.Equal(t, uint32(len(enc)-8), size)
	_ = r.Seek(20)
	format, _ := r.U16LE()
	channels, _ := r.U16LE()
	rate, _ := r.U32LE()
	byteRate, _ := r.U32LE()
	align, _ := r.U16LE()
	bits, _ := r.U16LE()
	assert.Equal(t, uint16(TagPCM), format)
	assert.Equal(t, uint16(2), channels)
	assert.Equal(t, uint32(48000), rate)
	assert.Equal(t, uint32(48000*4), byteRate)
	assert.Equal(t, uint16(4), align)
	assert.Equal(t, uint16(16), bits)
	assert.Equal(t, []byte{0x00, 0x40, 0x00, 0xC0}, enc[44:])
}

func TestEncode_Empty(t *testing.T) {
	for name, a := range map[string]*media.AudioData{
		"no channels":   {SampleRate: 44100},
		"zero frames":   media.NewAudio(2, 0, 44100),
		"nil channel 0": {Samples: [][]float64{nil}, SampleRate: 44100, Channels: 1},
	} {
		t.Run(name, func(t *testing.T) {
			enc, err := Encode(a, Options{})
			require.NoError(t, err)
			assert.Len(t, enc, 0)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(&media.AudioData{Samples: [][]float64{{0, 0}, {0}}, SampleRate: 8000, Channels: 2}, Options{})
	assert.ErrorIs(t, err, media.ErrInvalidFrameData)

	_, err = Encode(media.NewAudio(1, 1, 8000), Options{BitsPerSample: 12})
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)

	// the fmt chunk stores channels in 16 bits
	_, err = Encode(media.NewAudio(pcm.MaxChannels+1, 1, 8000), Options{})
	assert.ErrorIs(t, err, media.ErrInvalidFrameData)
}

func TestProbe(t *testing.T) {
	enc, err := Encode(sine(2, 22050, 44100), Options{BitsPerSample: 24})
	require.NoError(t, err)
	info, err := Probe(enc)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 24, info.BitsPerSample)
	assert.Equal(t, 22050, info.Frames)
	assert.Equal(t, 500*time.Millisecond, info.Duration)
}

type chunk struct {
	id   string
	body []byte
}

func riff(chunks ...chunk) []byte {
	w := binio.NewWriter(0)
	w.Tag("RIFF")
	w.U32LE(0)
	w.Tag("WAVE")
	for _, c := range chunks {
		w.Tag(c.id)
		w.U32LE(uint32(len(c.body)))
		w.Raw(c.body)
		w.Zeros(len(c.body) % 2)
	}
	w.PutU32LEAt(4, uint32(w.Len()-8))
	return w.Bytes()
}

func fmtChunk(tag uint16, channels, rate, bits int) chunk {
	w := binio.NewWriter(16)
	w.U16LE(tag)
	w.U16LE(uint16(channels))
	w.U32LE(uint32(rate))
	w.U32LE(uint32(rate * channels * bits / 8))
	w.U16LE(uint16(channels * bits / 8))
	w.U16LE(uint16(bits))
	return chunk{"fmt ", w.Bytes()}
}

func TestDecode_Chunks(t *testing.T) {
	pcm16 := []byte{0x00, 0x40, 0x00, 0xC0}

	t.Run("odd chunk padding", func(t *testing.T) {
		data := riff(chunk{"LIST", []byte{1, 2, 3}}, fmtChunk(TagPCM, 1, 8000, 16), chunk{"data", pcm16})
		a, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, -0.5}, a.Samples[0])
	})
	t.Run("extensible", func(t *testing.T) {
		f := fmtChunk(TagExtensible, 2, 8000, 16)
		ext := binio.NewWriter(0)
		ext.U16LE(22)     // cbSize
		ext.U16LE(16)     // valid bits
		ext.U32LE(0x3)    // front left, front right
		ext.U16LE(TagPCM) // GUID data1 low word
		ext.Raw([]byte{0, 0, 0, 0, 0x10, 0, 0x80, 0, 0, 0xAA, 0, 0x38, 0x9B, 0x71})
		f.body = append(f.body, ext.Bytes()...)
		a, err := Decode(riff(f, chunk{"data", pcm16}))
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{0.5}, {-0.5}}, a.Samples)
	})
	t.Run("data overruns file", func(t *testing.T) {
		data := riff(fmtChunk(TagPCM, 1, 8000, 16), chunk{"data", pcm16})
		a, err := Decode(data[:len(data)-2])
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5}, a.Samples[0])
	})
	t.Run("missing fmt", func(t *testing.T) {
		_, err := Decode(riff(chunk{"data", pcm16}))
		assert.ErrorIs(t, err, media.ErrMissingChunk)
	})
	t.Run("missing data", func(t *testing.T) {
		_, err := Decode(riff(fmtChunk(TagPCM, 1, 8000, 16)))
		assert.ErrorIs(t, err, media.ErrMissingChunk)
	})
	t.Run("adpcm", func(t *testing.T) {
		_, err := Decode(riff(fmtChunk(0x0002, 1, 8000, 4), chunk{"data", pcm16}))
		assert.ErrorIs(t, err, media.ErrUnsupportedFeature)
	})
	t.Run("zero channels", func(t *testing.T) {
		_, err := Decode(riff(fmtChunk(TagPCM, 0, 8000, 16), chunk{"data", pcm16}))
		assert.ErrorIs(t, err, media.ErrInvalidFrameData)
	})
	t.Run("short fmt", func(t *testing.T) {
		_, err := Decode(riff(chunk{"fmt ", []byte{1, 0}}, chunk{"data", pcm16}))
		assert.ErrorIs(t, err, media.ErrUnexpectedEOF)
	})
}

func TestDecode_Signature(t *testing.T) {
	_, err := Decode([]byte("RIFF"))
	assert.ErrorIs(t, err, media.ErrTooSmall)
	_, err = Decode([]byte("RIFF\x04\x00\x00\x00AVI "))
	assert.ErrorIs(t, err, media.ErrInvalidSignature)
	assert.False(t, CanDecode([]byte("FORM\x00\x00\x00\x04AIFF")))
	assert.True(t, CanDecode(riff()))
}
