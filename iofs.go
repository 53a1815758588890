package tinyfs

import (
	"bytes"
	"io"
	"io/fs"
	"time"
)

// IOFS wraps an FS to implement Go's io/fs interfaces over the flat
// namespace: every file lives directly under the root ".".
// It implements: fs.FS, fs.StatFS, fs.ReadFileFS, fs.ReadDirFS
type IOFS struct {
	fs *FS
}

// Compile-time interface compliance checks
var (
	_ fs.FS         = (*IOFS)(nil)
	_ fs.StatFS     = (*IOFS)(nil)
	_ fs.ReadFileFS = (*IOFS)(nil)
	_ fs.ReadDirFS  = (*IOFS)(nil)
)

// NewIOFS creates an io/fs compatible wrapper around a mounted volume.
//
// Example usage:
//
//	tfs, _ := tinyfs.Boot("volume.img")
//	fsys := tinyfs.NewIOFS(tfs)
//	fs.WalkDir(fsys, ".", walkFunc)
func NewIOFS(filesystem *FS) *IOFS {
	return &IOFS{fs: filesystem}
}

// Open implements fs.FS. Opening "." yields the root directory; any other
// valid name must be a flat filename on the volume. The returned file holds
// a snapshot of the contents, so it needs no descriptor of its own.
func (f *IOFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		entries, err := f.ReadDir(".")
		if err != nil {
			return nil, err
		}
		return &iofsDir{entries: entries}, nil
	}

	info, err := f.fs.Stat(name)
	if err != nil {
		if IsNotExist(err) {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	data, err := f.fs.ReadFile(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &iofsFile{info: info, r: bytes.NewReader(data)}, nil
}

// Stat implements fs.StatFS.
func (f *IOFS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return rootInfo{}, nil
	}
	info, err := f.fs.Stat(name)
	if err != nil {
		if IsNotExist(err) {
			return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
		}
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return iofsInfo{info: *info}, nil
}

// ReadFile implements fs.ReadFileFS.
func (f *IOFS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	data, err := f.fs.ReadFile(name)
	if err != nil {
		if IsNotExist(err) {
			return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
		}
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// ReadDir implements fs.ReadDirFS. The namespace is flat, so only "."
// has entries.
func (f *IOFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	if name != "." {
		if _, err := f.Stat(name); err != nil {
			return nil, err
		}
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	infos, err := f.fs.Files()
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	entries := make([]fs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = iofsEntry{info: info}
	}
	return entries, nil
}

// iofsInfo adapts FileInfo to fs.FileInfo. The volume tracks no
// permissions or timestamps, so mode and mtime are fixed.
type iofsInfo struct {
	info FileInfo
}

func (i iofsInfo) Name() string       { return i.info.Name }
func (i iofsInfo) Size() int64        { return int64(i.info.Size) }
func (i iofsInfo) Mode() fs.FileMode  { return 0o644 }
func (i iofsInfo) ModTime() time.Time { return time.Time{} }
func (i iofsInfo) IsDir() bool        { return false }
func (i iofsInfo) Sys() any           { return nil }

type rootInfo struct{}

func (rootInfo) Name() string       { return "." }
func (rootInfo) Size() int64        { return 0 }
func (rootInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o755 }
func (rootInfo) ModTime() time.Time { return time.Time{} }
func (rootInfo) IsDir() bool        { return true }
func (rootInfo) Sys() any           { return nil }

type iofsEntry struct {
	info FileInfo
}

func (e iofsEntry) Name() string               { return e.info.Name }
func (e iofsEntry) IsDir() bool                { return false }
func (e iofsEntry) Type() fs.FileMode          { return 0 }
func (e iofsEntry) Info() (fs.FileInfo, error) { return iofsInfo{info: e.info}, nil }

// iofsFile is a read-only snapshot of one file's contents.
type iofsFile struct {
	info *FileInfo
	r    *bytes.Reader
}

func (f *iofsFile) Stat() (fs.FileInfo, error) { return iofsInfo{info: *f.info}, nil }
func (f *iofsFile) Read(p []byte) (int, error) { return f.r.Read(p) }
func (f *iofsFile) Close() error               { return nil }

// iofsDir is the root directory handle.
type iofsDir struct {
	entries []fs.DirEntry
	pos     int
}

func (d *iofsDir) Stat() (fs.FileInfo, error) { return rootInfo{}, nil }
func (d *iofsDir) Close() error               { return nil }

func (d *iofsDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: ".", Err: fs.ErrInvalid}
}

// ReadDir implements fs.ReadDirFile.
func (d *iofsDir) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := d.entries[d.pos:]
	if n <= 0 {
		d.pos = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.pos += n
	return remaining[:n], nil
}
