// Package options configures the engine via the functional-options
// pattern, following the style of iamNilotpal-ignite's own options
// package. CLI/flag parsing is out of scope; Options is meant to be built
// up programmatically by an embedder.
package options

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mertolbekirov/logidx/codec"
)

// Options holds the engine's full configuration.
type Options struct {
	// DataDir is the directory holding temp_index.bin, finalized_index.bin
	// and the KV store file. Empty means run entirely in memory.
	DataDir string

	// Codec compresses FINAL segments before they are appended.
	Codec codec.Codec

	// Logger receives structured engine events. Defaults to a no-op logger.
	Logger *zap.SugaredLogger

	// KeyLockShards sizes the per-key write lock table.
	KeyLockShards int

	// PageCacheSize bounds how many KV-store pages are kept in memory at
	// once. Zero uses the kvstore package's default.
	PageCacheSize int
}

// OptionFunc modifies an Options value.
type OptionFunc func(*Options)

// NewDefaultOptions returns an Options populated with engine defaults.
func NewDefaultOptions() Options {
	return Options{
		DataDir:       DefaultDataDir,
		Codec:         codec.NewS2Codec(),
		Logger:        zap.NewNop().Sugar(),
		KeyLockShards: DefaultKeyLockShards,
		PageCacheSize: DefaultPageCacheSize,
	}
}

// WithDataDir sets the directory the engine's files live in.
func WithDataDir(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.DataDir = dir
		}
	}
}

// WithCodec overrides the compressor used for FINAL segments.
func WithCodec(c codec.Codec) OptionFunc {
	return func(o *Options) {
		if c != nil {
			o.Codec = c
		}
	}
}

// WithLogger injects a structured logger. A nil logger is ignored rather
// than panicking on first use.
func WithLogger(l *zap.SugaredLogger) OptionFunc {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithKeyLockShards overrides the per-key lock table's shard count.
func WithKeyLockShards(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.KeyLockShards = n
		}
	}
}

// WithPageCacheSize overrides the KV store's in-memory page cache size.
func WithPageCacheSize(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.PageCacheSize = n
		}
	}
}
