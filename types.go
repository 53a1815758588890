package tinyfs

import "github.com/tinyfs/tinyfs/blockstore"

// Options configures how Mount opens or creates a volume
type Options struct {
	// Path is the volume image file. When Store is nil, Mount loads the
	// image at this path, or formats a fresh volume there if the file does
	// not exist.
	Path string

	// Store is an explicit block store to mount. Takes precedence over
	// Path. The store's geometry must be able to host the volume layout.
	Store blockstore.Store

	// BlockSize and NumBlocks override the default geometry when Mount
	// builds its own image store. Ignored when Store is provided.
	BlockSize int
	NumBlocks int

	// CacheSize is the capacity of the filename-lookup cache
	// (default: 64). Negative disables caching.
	CacheSize int
}

// FileInfo describes one live file on the volume
type FileInfo struct {
	Name      string // Filename
	Size      int    // Logical size in bytes
	Inode     int    // Inode slot index
	NumBlocks int    // Allocated data blocks
}
