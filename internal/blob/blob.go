// Package blob fetches résumé files from object storage or local disk.
package blob

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("file not found")

type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
