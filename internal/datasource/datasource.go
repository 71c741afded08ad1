// Package datasource defines where trip input comes from.
package datasource

import (
	"context"
	"io"
)

// Source opens the input stream for a run. The caller closes the returned
// reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
