// Package blockstore provides fixed-geometry block devices for TinyFS
// volumes: an in-memory image persisted as a flat file, and a SQLite-backed
// store where each block is a row.
package blockstore

import "errors"

var (
	ErrOutOfRange = errors.New("block index out of range")
	ErrBadBuffer  = errors.New("buffer must be exactly one block")
	ErrShortImage = errors.New("image smaller than volume geometry")
	ErrNoPath     = errors.New("no persistence path set")
	ErrGeometry   = errors.New("stored geometry does not match")
)

// Store is a fixed-size, fixed-count array of opaque blocks addressed by
// integer index. It has no knowledge of the filesystem layered above it.
//
// Read and Write require buf to be exactly one block long. Sync persists
// the full current image to the store's backing location.
type Store interface {
	BlockSize() int
	NumBlocks() int
	Read(n int, buf []byte) error
	Write(n int, buf []byte) error
	Sync() error
	Close() error
}

func checkAccess(s Store, n int, buf []byte) error {
	if n < 0 || n >= s.NumBlocks() {
		return ErrOutOfRange
	}
	if len(buf) != s.BlockSize() {
		return ErrBadBuffer
	}
	return nil
}
