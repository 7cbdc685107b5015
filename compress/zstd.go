package compress

// ZstdCodec compresses payloads with Zstandard, the default snapshot
// codec. Model-state JSON compresses well under it, and decompression
// stays cheap enough for snapshot reload paths.
//
// Two implementations sit behind this type: a pure-Go one (the default)
// and a cgo binding selected with the nobuild tag for deployments that
// already link libzstd.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec creates a Zstandard codec at the default level.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
