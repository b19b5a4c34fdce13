package texture

import (
	"context"
	"image"
)

// Result is the outcome of an asynchronous load. Exactly one of Image and
// Err is set.
type Result struct {
	Path  string
	Image *image.NRGBA
	Err   error
}

// LoadAsync decodes path on its own goroutine. The returned channel yields a
// single Result and is then closed. Cancelling ctx before the decode finishes
// yields ctx.Err() and never a partial image.
func LoadAsync(ctx context.Context, path string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		done := make(chan Result, 1)
		go func() {
			img, err := LoadImage(path)
			done <- Result{Path: path, Image: img, Err: err}
		}()
		select {
		case <-ctx.Done():
			out <- Result{Path: path, Err: ctx.Err()}
		case r := <-done:
			if r.Err != nil {
				r.Image = nil
			}
			out <- r
		}
	}()
	return out
}
