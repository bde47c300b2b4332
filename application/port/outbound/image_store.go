package outbound

import (
	"context"
	"errors"
	"io"
)

var ErrImageNotFound = errors.New("image not found")

// ImageStore keeps uploaded recipe images. Save returns the name under which
// the image can later be opened.
type ImageStore interface {
	Save(ctx context.Context, filename string, contentType string, body io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}
