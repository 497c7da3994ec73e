package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/jpfielding/media.go/pkg/codec/au"
	"github.com/jpfielding/media.go/pkg/codec/qoi"
	"github.com/jpfielding/media.go/pkg/codec/wav"
	"github.com/jpfielding/media.go/pkg/media"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRoot(context.Background(), "abc123")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func tone() *media.AudioData {
	a := media.NewAudio(2, 400, 8000)
	for i := range a.Samples[0] {
		a.Samples[0][i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/8000)
		a.Samples[1][i] = -a.Samples[0][i]
	}
	return a
}

func checker() *media.ImageData {
	img := media.NewImage(6, 4)
	for i := 0; i < 24; i++ {
		v := byte(0)
		if (i%6+i/6)%2 == 0 {
			v = 255
		}
		copy(img.Data[i*4:], []byte{v, 128, 255 - v, 255})
	}
	return img
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "abc123\n", run(t, "version"))
}

func TestConvert_Audio(t *testing.T) {
	dir := t.TempDir()
	enc, err := wav.Encode(tone(), wav.Options{})
	require.NoError(t, err)
	in := writeFile(t, dir, "tone.wav", enc)
	out := filepath.Join(dir, "tone.au")

	run(t, "convert", in, out, "--bits", "24")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	h, err := au.ReadHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(au.EncodingLinear24), h.Encoding)
	a, err := au.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Channels)
	assert.Equal(t, 8000, a.SampleRate)
	assert.Equal(t, 400, a.Frames())
	assert.InDelta(t, tone().Samples[1][17], a.Samples[1][17], 1e-4)
}

func TestConvert_ImageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := checker()
	enc, err := qoi.Encode(src)
	require.NoError(t, err)
	in := writeFile(t, dir, "c.qoi", enc)
	pngPath := filepath.Join(dir, "c.png")
	back := filepath.Join(dir, "back.qoi")

	run(t, "convert", in, pngPath)
	f, err := os.Open(pngPath)
	require.NoError(t, err)
	decoded, err := png.Decode(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, 6, decoded.Bounds().Dx())

	run(t, "convert", pngPath, back)
	b, err := os.ReadFile(back)
	require.NoError(t, err)
	img, err := qoi.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, src.Data, img.Data)
}

func TestConvert_Resize(t *testing.T) {
	dir := t.TempDir()
	enc, err := qoi.Encode(checker())
	require.NoError(t, err)
	in := writeFile(t, dir, "c.qoi", enc)
	out := filepath.Join(dir, "small.qoi")

	run(t, "convert", in, out, "--width", "3")
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	h, err := qoi.DecodeConfig(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), h.Width)
	assert.Equal(t, uint32(2), h.Height)
}

func TestConvert_AudioToImageFails(t *testing.T) {
	dir := t.TempDir()
	enc, err := wav.Encode(tone(), wav.Options{})
	require.NoError(t, err)
	in := writeFile(t, dir, "tone.wav", enc)

	_, err = Convert(enc, ConvertOptions{Format: "qoi"})
	assert.ErrorIs(t, err, media.ErrUnsupportedFeature)

	root := NewRoot(context.Background(), "")
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"convert", in, filepath.Join(dir, "x.qoi")})
	assert.Error(t, root.Execute())
}

func TestInfo_JSON(t *testing.T) {
	dir := t.TempDir()
	wavBytes, err := wav.Encode(tone(), wav.Options{})
	require.NoError(t, err)
	qoiBytes, err := qoi.Encode(checker())
	require.NoError(t, err)
	a := writeFile(t, dir, "a.wav", wavBytes)
	b := writeFile(t, dir, "b.qoi", qoiBytes)
	c := writeFile(t, dir, "c.bin", []byte("not media"))

	var infos []FileInfo
	require.NoError(t, json.Unmarshal([]byte(run(t, "info", a, b, c)), &infos))
	require.Len(t, infos, 3)

	assert.Equal(t, "wav", infos[0].Format)
	assert.Equal(t, 2, infos[0].Channels)
	assert.Equal(t, 16, infos[0].Bits)
	assert.Equal(t, 400, infos[0].Frames)
	assert.NotEmpty(t, infos[0].Hash)

	assert.Equal(t, "qoi", infos[1].Format)
	assert.Equal(t, 6, infos[1].Width)
	assert.True(t, infos[1].Opaque)

	assert.Equal(t, "unknown", infos[2].Format)
	assert.NotEmpty(t, infos[2].Error)
}

func TestAnalyze_DumpZstd(t *testing.T) {
	dir := t.TempDir()
	src := checker()
	enc, err := qoi.Encode(src)
	require.NoError(t, err)
	in := writeFile(t, dir, "c.qoi", enc)
	dump := filepath.Join(dir, "pixels.rgba.zst")

	out := run(t, "analyze", in, "--dump", dump)
	assert.Contains(t, out, "Format: qoi (image)")
	assert.Contains(t, out, "Width: 6")

	b, err := os.ReadFile(dump)
	require.NoError(t, err)
	dec, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer dec.Close()
	raw, err := dec.DecodeAll(b, nil)
	require.NoError(t, err)
	assert.Equal(t, src.Data, raw)
}

func TestAnalyze_WAVChunks(t *testing.T) {
	dir := t.TempDir()
	enc, err := wav.Encode(tone(), wav.Options{})
	require.NoError(t, err)
	in := writeFile(t, dir, "tone.wav", enc)

	out := run(t, "analyze", in)
	assert.Contains(t, out, `"fmt " offset=20 size=16`)
	assert.Contains(t, out, `"data" offset=44 size=1600`)
	assert.Contains(t, out, "SampleRate: 8000")
}
