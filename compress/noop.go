package compress

// NoopCodec passes payloads through untouched. It backs TypeNone
// snapshots, where the JSON stays directly readable by external tools.
type NoopCodec struct{}

var _ Codec = NoopCodec{}

// NewNoopCodec creates a pass-through codec.
func NewNoopCodec() NoopCodec {
	return NoopCodec{}
}

// Compress returns data unchanged. The result aliases the input, so
// callers must not mutate the input while the snapshot is in flight.
func (NoopCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data unchanged, aliasing the input.
func (NoopCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
