package compress

import (
	"fmt"

	"github.com/arloliu/mixfit/errs"
)

// Type identifies a payload codec. The value is written verbatim into
// snapshot headers, so the constants are part of the on-disk format and
// must never be renumbered.
type Type uint8

const (
	TypeNone Type = 0x1 // TypeNone stores payloads uncompressed.
	TypeZstd Type = 0x2 // TypeZstd selects Zstandard compression.
	TypeS2   Type = 0x3 // TypeS2 selects S2 compression.
	TypeLZ4  Type = 0x4 // TypeLZ4 selects LZ4 block compression.
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeZstd:
		return "Zstd"
	case TypeS2:
		return "S2"
	case TypeLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses a snapshot payload.
type Compressor interface {
	// Compress returns the compressed form of data. The returned slice
	// is owned by the caller; the input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload written by the matching Compressor.
type Decompressor interface {
	// Decompress returns the original payload. It fails if data is
	// corrupted or was written by a different codec.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions of a compression algorithm. Every
// built-in codec is a stateless value, safe to share across goroutines.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[Type]Codec{
	TypeNone: NewNoopCodec(),
	TypeZstd: NewZstdCodec(),
	TypeS2:   NewS2Codec(),
	TypeLZ4:  NewLZ4Codec(),
}

// ForType returns the built-in codec registered for t. Readers call
// this with the type recorded in a snapshot header; writers call it
// with the type chosen at save time.
func ForType(t Type) (Codec, error) {
	if codec, ok := builtinCodecs[t]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: 0x%02x", errs.ErrUnsupportedCodec, uint8(t))
}
