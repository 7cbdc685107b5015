//go:build nobuild

package compress

import (
	"github.com/valyala/gozstd"
)

// Compress compresses data with libzstd at level 3, matching the
// pure-Go default level.
func (ZstdCodec) Compress(data []byte) ([]byte, error) {
	return gozstd.CompressLevel(nil, data, 3), nil
}

// Decompress restores a Zstandard payload via libzstd.
func (ZstdCodec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.Decompress(nil, data)
}
