// Package snapshot persists models as self-contained byte snapshots.
//
// A snapshot frames the model's specification and current fit (name,
// target, ordered features with transforms, fixed coefficients, date
// window, weighted-variable recipes, fit statistics) as compressed JSON
// behind a fixed binary header carrying the codec id and an xxhash64
// payload digest. Load verifies the framing, rebuilds the model on a
// caller-supplied dataset, and refits; if the refit lands away from the
// saved fit, the divergence is logged, not fatal, since it simply means
// the data changed underneath the snapshot.
//
// Snapshots do not carry column data. Weighted composites rebuild from
// their recipes, but any other derived column a feature references must
// already exist in the dataset handed to Load.
package snapshot

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/arloliu/mixfit/compress"
	"github.com/arloliu/mixfit/dataset"
	"github.com/arloliu/mixfit/internal/hash"
	"github.com/arloliu/mixfit/internal/options"
	"github.com/arloliu/mixfit/model"
)

// config carries the knobs shared by Save and Load.
type config struct {
	codec  compress.Type
	logger *zap.Logger
}

// Option configures Save and Load.
type Option = options.Option[*config]

// WithCodec selects the payload codec Save writes with. The default is
// compress.TypeZstd. Load ignores the option and follows the header.
func WithCodec(t compress.Type) Option {
	return options.NoError(func(c *config) { c.codec = t })
}

// WithLogger sets the logger for size diagnostics and drift warnings.
// On Load it also becomes the rebuilt model's logger.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(c *config) { c.logger = logger })
}

func newConfig(opts []Option) (*config, error) {
	c := &config{codec: compress.TypeZstd, logger: zap.NewNop()}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// Save serializes the model into a framed snapshot.
func Save(m *model.Model, opts ...Option) ([]byte, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	codec, err := compress.ForType(cfg.codec)
	if err != nil {
		return nil, err
	}

	state, err := json.Marshal(captureState(m))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot state: %w", err)
	}
	payload, err := codec.Compress(state)
	if err != nil {
		return nil, fmt.Errorf("compress snapshot payload: %w", err)
	}

	out := make([]byte, headerSize+len(payload))
	h := header{
		codec:      cfg.codec,
		payloadLen: uint32(len(payload)),
		digest:     hash.Digest(payload),
	}
	h.encode(out[:headerSize])
	copy(out[headerSize:], payload)

	cfg.logger.Debug("snapshot written",
		zap.String("model", m.Name()),
		zap.String("codec", cfg.codec.String()),
		zap.Int("state_bytes", len(state)),
		zap.Int("payload_bytes", len(payload)))

	return out, nil
}

// Load rebuilds a model from a snapshot onto the given dataset and
// refits it.
//
// Framing failures return errs.ErrSnapshotTooShort,
// ErrInvalidMagicNumber, ErrUnsupportedVersion, ErrDigestMismatch, or
// ErrUnsupportedCodec. Replay failures surface the model package's own
// errors, e.g. errs.ErrColumnNotFound when the dataset lacks a column
// the saved features need.
func Load(data []byte, ds *dataset.Dataset, opts ...Option) (*model.Model, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	h, payload, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	codec, err := compress.ForType(h.codec)
	if err != nil {
		return nil, err
	}
	state, err := codec.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot payload: %w", err)
	}

	var st modelState
	if err := json.Unmarshal(state, &st); err != nil {
		return nil, fmt.Errorf("decode snapshot state: %w", err)
	}

	m, err := st.rebuild(ds, cfg.logger)
	if err != nil {
		return nil, err
	}
	st.checkDrift(m, cfg.logger)

	cfg.logger.Debug("snapshot loaded",
		zap.String("model", m.Name()),
		zap.String("codec", h.codec.String()),
		zap.String("saved_at", st.SavedAt),
		zap.Int("features", len(st.Features)))

	return m, nil
}
