package store

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Compressed applies zstd to every value of the wrapped store
type Compressed struct {
	inner Store
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner
func NewCompressed(inner Store) (*Compressed, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Compressed{inner: inner, enc: enc, dec: dec}, nil
}

func (c *Compressed) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", key, err)
	}
	return out, nil
}

func (c *Compressed) Set(ctx context.Context, key string, data []byte) error {
	return c.inner.Set(ctx, key, c.enc.EncodeAll(data, nil))
}

func (c *Compressed) Remove(ctx context.Context, key string) error {
	return c.inner.Remove(ctx, key)
}

func (c *Compressed) Close() error {
	c.dec.Close()
	_ = c.enc.Close()
	return c.inner.Close()
}
