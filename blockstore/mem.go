package blockstore

import (
	"fmt"
	"os"
)

// Mem is a block store held entirely in memory as one contiguous image.
// Sync serializes the whole image to the configured path, overwriting any
// existing file; OpenImage loads one back.
type Mem struct {
	blockSize int
	numBlocks int
	image     []byte
	path      string
}

var _ Store = (*Mem)(nil)

// NewMem creates a zeroed in-memory volume. The store does not persist
// until a path is set with SetPath.
func NewMem(blockSize, numBlocks int) (*Mem, error) {
	if blockSize <= 0 || numBlocks <= 0 {
		return nil, fmt.Errorf("invalid geometry %dx%d", numBlocks, blockSize)
	}
	return &Mem{
		blockSize: blockSize,
		numBlocks: numBlocks,
		image:     make([]byte, blockSize*numBlocks),
	}, nil
}

// OpenImage loads an existing volume image from path. The file must hold at
// least blockSize*numBlocks bytes; any trailing bytes are ignored. A missing
// file surfaces as an error satisfying errors.Is(err, fs.ErrNotExist).
func OpenImage(path string, blockSize, numBlocks int) (*Mem, error) {
	m, err := NewMem(blockSize, numBlocks)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < len(m.image) {
		return nil, ErrShortImage
	}
	copy(m.image, data)
	m.path = path
	return m, nil
}

// SetPath sets the file Sync writes the image to.
func (m *Mem) SetPath(path string) {
	m.path = path
}

// Path returns the persistence target, empty if none was set.
func (m *Mem) Path() string {
	return m.path
}

func (m *Mem) BlockSize() int { return m.blockSize }
func (m *Mem) NumBlocks() int { return m.numBlocks }

// Read copies block n into buf.
func (m *Mem) Read(n int, buf []byte) error {
	if err := checkAccess(m, n, buf); err != nil {
		return err
	}
	copy(buf, m.image[n*m.blockSize:(n+1)*m.blockSize])
	return nil
}

// Write copies buf into block n.
func (m *Mem) Write(n int, buf []byte) error {
	if err := checkAccess(m, n, buf); err != nil {
		return err
	}
	copy(m.image[n*m.blockSize:(n+1)*m.blockSize], buf)
	return nil
}

// Sync writes the full image to the configured path.
func (m *Mem) Sync() error {
	if m.path == "" {
		return ErrNoPath
	}
	return os.WriteFile(m.path, m.image, 0o644)
}

// Close releases nothing; the image lives until the Mem is collected.
func (m *Mem) Close() error {
	return nil
}
