package format

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/jpfielding/media.go/pkg/media"
)

// Item is one named input for DecodeAll.
type Item struct {
	Name string
	Data []byte
}

// Result is the outcome of decoding one Item. Exactly one of Image, Audio
// or Err is set.
type Result struct {
	Name   string
	Format Format
	Image  *media.ImageData
	Audio  *media.AudioData
	Err    error
}

// Decode detects the format of data and decodes it.
func Decode(data []byte) Result {
	f := Detect(data)
	r := Result{Format: f}
	switch f.Kind() {
	case KindImage:
		c, err := Image(f, Options{})
		if err != nil {
			r.Err = err
			return r
		}
		r.Image, r.Err = c.Decode(data)
	case KindAudio:
		c, err := Audio(f, Options{})
		if err != nil {
			r.Err = err
			return r
		}
		r.Audio, r.Err = c.Decode(data)
	case KindContainer:
		r.Err = fmt.Errorf("format: %s holds compressed streams: %w", f, media.ErrUnsupportedFeature)
	default:
		r.Err = fmt.Errorf("format: unrecognized data: %w", media.ErrInvalidSignature)
	}
	return r
}

// DecodeAll decodes items concurrently, at most runtime.NumCPU at a time.
// Results keep the order of items. Items not started before ctx is done
// report ctx.Err().
func DecodeAll(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	for i, it := range items {
		select {
		case <-ctx.Done():
			results[i] = Result{Name: it.Name, Err: ctx.Err()}
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				results[i] = Result{Name: it.Name, Err: err}
				return
			}
			r := Decode(it.Data)
			r.Name = it.Name
			if r.Err != nil {
				slog.Debug("format: decode failed", slog.String("name", it.Name), slog.Any("error", r.Err))
			}
			results[i] = r
		}()
	}
	wg.Wait()
	return results
}
