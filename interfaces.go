package tinyfs

// FileSystem defines the interface for volume operations.
// This interface is optional - the package returns concrete *FS values,
// but users can program against this interface for testability and mocking.
type FileSystem interface {
	// Sync persists the current in-memory image to the store's backing
	// location.
	Sync() error

	// Create creates an empty file.
	Create(name string) error

	// Open opens an existing file and returns a descriptor.
	Open(name string) (int, error)

	// OpenFile opens an existing file and returns an io-style handle.
	OpenFile(name string) (*File, error)

	// Read copies bytes from the descriptor's position into p.
	Read(fd int, p []byte) (int, error)

	// Write copies bytes from p at the descriptor's position.
	Write(fd int, p []byte) (int, error)

	// Close releases a descriptor.
	Close(fd int) error

	// Delete removes a file that no descriptor references.
	Delete(name string) error

	// Stat returns metadata for a file by name.
	Stat(name string) (*FileInfo, error)

	// Files lists every live file, sorted by name.
	Files() ([]FileInfo, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to a file at offset 0, creating it if needed.
	WriteFile(name string, data []byte) error

	// Unmount closes the underlying block store.
	Unmount() error
}

// Compile-time interface satisfaction check.
var _ FileSystem = (*FS)(nil)
