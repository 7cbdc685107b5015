package snapshot

import (
	"encoding/binary"
	"fmt"

	"github.com/arloliu/mixfit/compress"
	"github.com/arloliu/mixfit/errs"
	"github.com/arloliu/mixfit/internal/hash"
)

// A snapshot is a fixed little-endian header followed by the
// codec-compressed JSON state:
//
//	offset 0-3   magic "MXFS"
//	offset 4     format version
//	offset 5     codec id (compress.Type)
//	offset 6-7   reserved, zero
//	offset 8-11  payload length in bytes
//	offset 12-19 xxhash64 digest of the compressed payload
const (
	headerSize = 20

	magicNumber   uint32 = 0x4D584653 // "MXFS"
	formatVersion uint8  = 1
)

// header is the parsed fixed-size prefix of a snapshot.
type header struct {
	codec      compress.Type
	payloadLen uint32
	digest     uint64
}

func (h header) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], magicNumber)
	buf[4] = formatVersion
	buf[5] = uint8(h.codec)
	buf[6] = 0
	buf[7] = 0
	binary.LittleEndian.PutUint32(buf[8:12], h.payloadLen)
	binary.LittleEndian.PutUint64(buf[12:20], h.digest)
}

// parseHeader validates the framing of data and returns the header and
// the verified payload it frames. Bytes beyond the framed payload are
// ignored, so a snapshot can be sliced out of a larger buffer.
func parseHeader(data []byte) (header, []byte, error) {
	if len(data) < headerSize {
		return header{}, nil, fmt.Errorf("%w: %d bytes", errs.ErrSnapshotTooShort, len(data))
	}
	if m := binary.LittleEndian.Uint32(data[0:4]); m != magicNumber {
		return header{}, nil, fmt.Errorf("%w: 0x%08x", errs.ErrInvalidMagicNumber, m)
	}
	if v := data[4]; v != formatVersion {
		return header{}, nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedVersion, v)
	}

	h := header{
		codec:      compress.Type(data[5]),
		payloadLen: binary.LittleEndian.Uint32(data[8:12]),
		digest:     binary.LittleEndian.Uint64(data[12:20]),
	}
	if avail := len(data) - headerSize; avail < int(h.payloadLen) {
		return header{}, nil, fmt.Errorf("%w: %d of %d payload bytes",
			errs.ErrSnapshotTooShort, avail, h.payloadLen)
	}

	payload := data[headerSize : headerSize+int(h.payloadLen)]
	if d := hash.Digest(payload); d != h.digest {
		return header{}, nil, fmt.Errorf("%w: stored %016x, computed %016x",
			errs.ErrDigestMismatch, h.digest, d)
	}

	return h, payload, nil
}
