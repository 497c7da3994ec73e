package aiff

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

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

func assertClose(t *testing.T, want, got *media.AudioData, delta float64) {
	t.Helper()
	require.Equal(t, want.Channels, got.Channels)
	require.Equal(t, want.SampleRate, got.SampleRate)
	for c := range want.Samples {
		require.Len(t, got.Samples[c], len(want.Samples[c]))
		for i := range want.Samples[c] {
			require.InDelta(t, want.Samples[c][i], got.Samples[c][i], delta, "channel %d sample %d", c, i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tolerance := map[int]float64{8: 0.05, 16: 0.0005, 24: 0.000005, 32: 0.000005}
	for _, bits := range []int{8, 16, 24, 32} {
		for _, rate := range []int{8000, 22050, 44100, 48000, 96000} {
			for _, channels := range []int{1, 2, 4} {
				t.Run(fmt.Sprintf("%dbit/%dHz/%dch", bits, rate, channels), func(t *testing.T) {
					src := sine(channels, 77, rate)
					enc, err := Encode(src, Options{BitsPerSample: bits})
					require.NoError(t, err)
					assert.Equal(t, "AIFF", string(enc[8:12]))
					dec, err := Decode(enc)
					require.NoError(t, err)
					assertClose(t, src, dec, tolerance[bits])
				})
			}
		}
	}
}

func TestRoundTrip_Float(t *testing.T) {
	for _, bits := range []int{32, 64} {
		src := sine(2, 40, 48000)
		enc, err := Encode(src, Options{Float: true, BitsPerSample: bits})
		require.NoError(t, err)
		assert.Equal(t, "AIFC", string(enc[8:12]))
		assert.Contains(t, string(enc), fmt.Sprintf("fl%d", bits))
		dec, err := Decode(enc)
		require.NoError(t, err)
		assertClose(t, src, dec, 1e-6)
	}
}

func TestEncode_EightBitIsSigned(t *testing.T) {
	enc, err := Encode(media.NewAudio(1, 1, 8000), Options{BitsPerSample: 8})
	require.NoError(t, err)
	// FORM(12) COMM(8+18) SSND(8) offset(4) block(4), one sample, pad
	require.Len(t, enc, 12+26+16+2)
	assert.Equal(t, byte(0), enc[54])
	assert.Equal(t, uint32(len(enc)-8), binary.BigEndian.Uint32(enc[4:8]))
}

func TestEncode_TooManyChannels(t *testing.T) {
	_, err := Encode(media.NewAudio(pcm.MaxChannels+1, 1, 8000), Options{})
	assert.ErrorIs(t, err, media.ErrInvalidFrameData)

	enc, err := Encode(media.NewAudio(pcm.MaxChannels, 1, 8000), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint16(pcm.MaxChannels), binary.BigEndian.Uint16(enc[20:22]))
}

func TestEncode_Empty(t *testing.T) {
	enc, err := Encode(&media.AudioData{}, Options{})
	require.NoError(t, err)
	assert.Len(t, enc, 0)

	enc, err = Encode(media.NewAudio(1, 0, 44100), Options{})
	require.NoError(t, err)
	assert.Len(t, enc, 0)
}

func TestProbe(t *testing.T) {
	enc, err := Encode(sine(1, 4410, 44100), Options{})
	require.NoError(t, err)
	info, err := Probe(enc)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 16, info.BitsPerSample)
	assert.Equal(t, 4410, info.Frames)
	assert.Equal(t, int64(100e6), info.Duration.Nanoseconds())
}

type chunk struct {
	id   string
	body []byte
}

func form(kind string, chunks ...chunk) []byte {
	w := binio.NewWriter(0)
	w.Tag("FORM")
	w.U32BE(0)
	w.Tag(kind)
	for _, c := range chunks {
		w.Tag(c.id)
		w.U32BE(uint32(len(c.body)))
		w.Raw(c.body)
		w.Zeros(len(c.body) % 2)
	}
	w.PutU32BEAt(4, uint32(w.Len()-8))
	return w.Bytes()
}

func comm(channels, frames, bits int, rate float64, compression string) chunk {
	w := binio.NewWriter(0)
	w.U16BE(uint16(channels))
	w.U32BE(uint32(frames))
	w.U16BE(uint16(bits))
	w.Extended80(rate)
	if compression != "" {
		w.Tag(compression)
		w.U8(0) // empty name
		w.U8(0)
	}
	return chunk{"COMM", w.Bytes()}
}

func ssnd(offset int, data []byte) chunk {
	w := binio.NewWriter(0)
	w.U32BE(uint32(offset))
	w.U32BE(0)
	w.Zeros(offset)
	w.Raw(data)
	return chunk{"SSND", w.Bytes()}
}

func TestDecode_AIFC(t *testing.T) {
	tests := []struct {
		name        string
		compression string
		bits        int
		data        []byte
		want        []float64
	}{
		{"NONE", "NONE", 16, []byte{0x40, 0x00, 0xC0, 0x00}, []float64{0.5, -0.5}},
		{"twos", "twos", 8, []byte{0x40, 0xC0}, []float64{0.5, -0.5}},
		{"sowt", "sowt", 16, []byte{0x00, 0x40, 0x00, 0xC0}, []float64{0.5, -0.5}},
		{"fl32", "fl32", 32, []byte{0x3F, 0x00, 0x00, 0x00}, []float64{0.5}},
		{"FL64", "FL64", 64, []byte{0xBF, 0xD0, 0, 0, 0, 0, 0, 0}, []float64{-0.25}},
		{"ulaw", "ulaw", 16, []byte{0xFF, 0x80}, []float64{0, 32124.0 / 32768}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := form("AIFC",
				chunk{"FVER", []byte{0xA2, 0x80, 0x51, 0x40}},
				comm(1, len(tt.want), tt.bits, 22050, tt.compression),
				ssnd(0, tt.data))
			a, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, 22050, a.SampleRate)
			assert.Equal(t, tt.want, a.Samples[0])
		})
	}

	_, err := Decode(form("AIFC", comm(1, 1, 16, 8000, "ima4"), ssnd(0, []byte{0, 0})))
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)
}

func TestDecode_Chunks(t *testing.T) {
	t.Run("ssnd offset and odd padding", func(t *testing.T) {
		data := form("AIFF",
			chunk{"NAME", []byte("odd")},
			comm(1, 3, 8, 8000, ""),
			ssnd(4, []byte{0x40, 0x00, 0xC0}),
			chunk{"ANNO", []byte("x")})
		a, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.5, 0, -0.5}, a.Samples[0])
	})
	t.Run("frames limit payload", func(t *testing.T) {
		data := form("AIFF", comm(1, 1, 16, 8000, ""), ssnd(0, []byte{0x40, 0x00, 0x7F, 0xFF}))
		info, err := Probe(data)
		require.NoError(t, err)
		assert.Equal(t, 1, info.Frames)
	})
	t.Run("missing COMM", func(t *testing.T) {
		_, err := Decode(form("AIFF", ssnd(0, []byte{0, 0})))
		assert.ErrorIs(t, err, media.ErrMissingChunk)
	})
	t.Run("missing SSND", func(t *testing.T) {
		_, err := Decode(form("AIFF", comm(1, 1, 16, 8000, "")))
		assert.ErrorIs(t, err, media.ErrMissingChunk)
	})
	t.Run("offset past chunk", func(t *testing.T) {
		c := ssnd(0, []byte{0, 0})
		c.body[3] = 9
		_, err := Decode(form("AIFF", comm(1, 1, 16, 8000, ""), c))
		assert.ErrorIs(t, err, media.ErrUnexpectedEOF)
	})
}

func TestDecode_Signature(t *testing.T) {
	_, err := Decode([]byte("FORM"))
	assert.ErrorIs(t, err, media.ErrTooSmall)
	_, err = Decode([]byte("FORM\x00\x00\x00\x04WAVE"))
	assert.ErrorIs(t, err, media.ErrInvalidSignature)
	assert.True(t, CanDecode(form("AIFC")))
	assert.False(t, CanDecode([]byte("RIFF\x00\x00\x00\x04WAVE")))
}
