package tinyfs

import "io"

// File wraps an open descriptor in the standard io interfaces.
//
// File implements:
//   - io.Reader, io.Writer (sequential I/O sharing the session file pointer)
//   - io.Seeker (repositions the session file pointer)
//   - io.Closer
type File struct {
	fs   *FS
	fd   int
	name string
}

// Compile-time interface checks
var (
	_ io.Reader      = (*File)(nil)
	_ io.Writer      = (*File)(nil)
	_ io.Seeker      = (*File)(nil)
	_ io.Closer      = (*File)(nil)
	_ io.ReadSeeker  = (*File)(nil)
	_ io.WriteSeeker = (*File)(nil)
)

// OpenFile opens an existing file and returns a handle around its
// descriptor. The handle and descriptor-based calls on the same fd share
// one file pointer.
func (fs *FS) OpenFile(name string) (*File, error) {
	fd, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	return &File{fs: fs, fd: fd, name: name}, nil
}

// Name returns the name the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Fd returns the underlying descriptor.
func (f *File) Fd() int {
	return f.fd
}

// Read reads up to len(p) bytes into p, advancing the file pointer.
// It implements io.Reader, converting a zero-read at end of file to io.EOF.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.fs.Read(f.fd, p)
	if n == 0 && err == nil && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

// Write writes len(p) bytes from p, advancing the file pointer.
// It implements io.Writer.
func (f *File) Write(p []byte) (int, error) {
	return f.fs.Write(f.fd, p)
}

// Seek sets the file pointer for the next Read or Write. The pointer may be
// placed past the current size; a later Write grows the file up to the
// direct-pointer limit.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	idx := f.fs.fdToIndex(f.fd)
	if idx < 0 {
		return 0, ErrBadf("seek", f.fd)
	}
	entry := &f.fs.oft[idx]

	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = int64(entry.filePointer) + offset
	case io.SeekEnd:
		ino, err := f.fs.readInode(entry.inodeIndex)
		if err != nil {
			return 0, err
		}
		newOffset = int64(ino.Size) + offset
	default:
		return 0, ErrInval("seek", f.name, "invalid whence")
	}

	if newOffset < 0 {
		return 0, ErrInval("seek", f.name, "negative offset")
	}

	entry.filePointer = int(newOffset)
	return newOffset, nil
}

// Offset returns the current file pointer.
func (f *File) Offset() (int, error) {
	idx := f.fs.fdToIndex(f.fd)
	if idx < 0 {
		return 0, ErrBadf("offset", f.fd)
	}
	return f.fs.oft[idx].filePointer, nil
}

// Size returns the current logical file size.
func (f *File) Size() (int, error) {
	idx := f.fs.fdToIndex(f.fd)
	if idx < 0 {
		return 0, ErrBadf("size", f.fd)
	}
	ino, err := f.fs.readInode(f.fs.oft[idx].inodeIndex)
	if err != nil {
		return 0, err
	}
	return int(ino.Size), nil
}

// Close releases the descriptor.
func (f *File) Close() error {
	return f.fs.Close(f.fd)
}
