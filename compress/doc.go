// Package compress provides the payload codecs used by model snapshots.
//
// A snapshot stores model state as JSON behind a fixed binary header; the
// codec compresses that JSON payload. The header records which codec wrote
// the payload, so any snapshot can be read back regardless of how the
// reader is configured.
//
// Four codecs are built in:
//
//   - None: stores the payload as is. For inspecting snapshots with
//     external tools, or payloads too small to be worth compressing.
//   - Zstd: the default. Model-state JSON is repetitive (column names,
//     object keys, formatted floats) and typically shrinks several-fold.
//   - S2: faster than zstd with a weaker ratio, for callers snapshotting
//     in bulk, e.g. once per model across a whole registry.
//   - LZ4: fastest decompression, for read-heavy stores of archived
//     models.
//
// All codecs are stateless values, safe for concurrent use; the zstd and
// lz4 implementations pool their encoder state internally.
//
// The Type constants are the stable on-disk identifiers recorded in
// snapshot headers; selection happens per snapshot via snapshot.WithCodec.
package compress
