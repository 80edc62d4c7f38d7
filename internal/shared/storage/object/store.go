package object

import (
	"context"
	"io"
)

// Reader opens stored objects by key.
type Reader interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
