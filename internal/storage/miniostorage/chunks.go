package miniostorage

import (
	"context"
	"fmt"
)

type rangeFetcher func(ctx context.Context, offset, length int64) ([]byte, error)

// readChunked собирает объект размера size из последовательных кусков не больше chunk байт
func readChunked(ctx context.Context, size, chunk int64, fetch rangeFetcher) ([]byte, error) {
	if size <= 0 {
		return []byte{}, nil
	}
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	buf := make([]byte, 0, size)
	for off := int64(0); off < size; off += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := min(chunk, size-off)
		part, err := fetch(ctx, off, n)
		if err != nil {
			return nil, fmt.Errorf("read range %d-%d: %w", off, off+n-1, err)
		}
		if int64(len(part)) != n {
			return nil, fmt.Errorf("short read at %d: got %d of %d bytes", off, len(part), n)
		}
		buf = append(buf, part...)
	}

	return buf, nil
}
