// Package logidx is a log-index storage engine for a blockchain node:
// given the logs emitted by every processed block, it maintains a
// persistent inverted index from address or topic to the ascending list
// of block numbers it appeared in, restricted to a caller-supplied range.
//
// The public surface is small on purpose, mirroring the facade cdb's own
// db.DB exposes over its btree/vm/planner stack: New to open an engine,
// SetReceipts to ingest a block's logs, and GetBlockNumbers to query.
// Everything else (page files, the KV store, the free-page list, per-key
// locking) is an internal collaborator.
package logidx

import (
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mertolbekirov/logidx/appendfile"
	"github.com/mertolbekirov/logidx/codec"
	"github.com/mertolbekirov/logidx/errs"
	"github.com/mertolbekirov/logidx/freelist"
	"github.com/mertolbekirov/logidx/keylock"
	"github.com/mertolbekirov/logidx/kvstore"
	"github.com/mertolbekirov/logidx/namespace"
	"github.com/mertolbekirov/logidx/options"
	"github.com/mertolbekirov/logidx/pagefile"
)

const (
	tempFileName  = "temp_index.bin"
	finalFileName = "finalized_index.bin"
	kvFileName    = "kv_store.bin"
)

// Engine is the top-level handle returned by New.
type Engine struct {
	opts options.Options
	log  *zap.SugaredLogger

	temp  *pagefile.PageFile
	final *appendfile.AppendFile
	kv    *kvstore.Store
	free  *freelist.Allocator
	locks *keylock.Table
	codec codec.Codec
}

// New opens (or creates) an engine using opts.DataDir as its storage
// directory, or an in-memory engine if DataDir is empty.
func New(optFns ...options.OptionFunc) (*Engine, error) {
	opts := options.NewDefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	log := opts.Logger

	tempPath, finalPath, kvPath := "", "", ""
	if opts.DataDir != "" {
		tempPath = filepath.Join(opts.DataDir, tempFileName)
		finalPath = filepath.Join(opts.DataDir, finalFileName)
		kvPath = filepath.Join(opts.DataDir, kvFileName)
	}

	temp, err := pagefile.Open(tempPath, log)
	if err != nil {
		return nil, err
	}
	final, err := appendfile.Open(finalPath, log)
	if err != nil {
		return nil, err
	}
	kv, err := kvstore.Open(kvPath, log, opts.PageCacheSize)
	if err != nil {
		return nil, err
	}
	free, err := freelist.New(kv)
	if err != nil {
		return nil, err
	}

	log.Infow("engine opened", "dataDir", opts.DataDir)
	return &Engine{
		opts:  opts,
		log:   log,
		temp:  temp,
		final: final,
		kv:    kv,
		free:  free,
		locks: keylock.NewWithShards(opts.KeyLockShards),
		codec: opts.Codec,
	}, nil
}

// Close releases every file handle the engine holds.
func (e *Engine) Close() error {
	if err := e.temp.Close(); err != nil {
		return err
	}
	if err := e.final.Close(); err != nil {
		return err
	}
	return e.kv.Close()
}

// namespaceFor picks Addresses or Topics by key width: a namespace
// parameter rather than per-kind inheritance.
func namespaceFor(key []byte) (namespace.Namespace, error) {
	switch len(key) {
	case namespace.Addresses.KeyWidth:
		return namespace.Addresses, nil
	case namespace.Topics.KeyWidth:
		return namespace.Topics, nil
	default:
		return namespace.Namespace{}, errs.ContractViolation("key has unrecognized width").
			WithDetail("width", len(key))
	}
}
