// Package tinyfs implements a single-volume, flat-namespace, inode-based
// filesystem over a fixed-geometry block store. Files are addressed through
// a small open-file table; each inode carries direct pointers only, so the
// maximum file size is NumDirectPointers blocks.
package tinyfs

import (
	"encoding/binary"
	"errors"
	iofs "io/fs"
	"sort"

	"github.com/tinyfs/tinyfs/blockstore"
	"github.com/tinyfs/tinyfs/internal/cache"
)

// openFile is one open-file-table entry: an active session on an inode with
// its own file pointer.
type openFile struct {
	used        bool
	inodeIndex  int
	filePointer int
}

// FS is a mounted TinyFS session. All volume state (bitmaps, open-file
// table, layout) lives on the session, so independent sessions on separate
// stores coexist. FS is not safe for concurrent use; callers serialize
// their own calls.
type FS struct {
	store  blockstore.Store
	layout layout

	inodeBitmap bitmap
	dataBitmap  bitmap
	oft         [OpenFileTableSize]openFile

	names cache.NameCache
}

// Boot mounts the volume image at path with the default geometry, formatting
// a fresh volume if no image exists there.
func Boot(path string) (*FS, error) {
	return Mount(Options{Path: path})
}

// Mount opens a volume.
//
// With opts.Store set, the store is mounted directly: a matching superblock
// signature mounts the existing volume, an all-zero superblock is formatted
// in place, and anything else fails as a foreign image. Without a store,
// the image file at opts.Path is loaded (its signature must match) or, if
// absent, created, formatted and persisted.
func Mount(opts Options) (*FS, error) {
	store := opts.Store
	loadedImage := false

	if store == nil {
		if opts.Path == "" {
			return nil, errors.New("either Path or Store must be provided")
		}
		blockSize := opts.BlockSize
		if blockSize <= 0 {
			blockSize = DefaultBlockSize
		}
		numBlocks := opts.NumBlocks
		if numBlocks <= 0 {
			numBlocks = DefaultNumBlocks
		}

		mem, err := blockstore.OpenImage(opts.Path, blockSize, numBlocks)
		switch {
		case err == nil:
			loadedImage = true
		case errors.Is(err, iofs.ErrNotExist):
			mem, err = blockstore.NewMem(blockSize, numBlocks)
			if err != nil {
				return nil, err
			}
			mem.SetPath(opts.Path)
		default:
			return nil, ErrIO("mount", opts.Path, err.Error())
		}
		store = mem
	}

	lay, err := computeLayout(store.BlockSize(), store.NumBlocks())
	if err != nil {
		return nil, err
	}

	fs := &FS{store: store, layout: lay}

	cacheSize := opts.CacheSize
	if cacheSize == 0 {
		cacheSize = 64
	}
	if cacheSize < 0 {
		fs.names = cache.Noop{}
	} else {
		fs.names, err = cache.NewLRU(cacheSize)
		if err != nil {
			return nil, err
		}
	}

	super := fs.blockBuf()
	if err := store.Read(SuperblockIndex, super); err != nil {
		return nil, ErrIO("mount", opts.Path, err.Error())
	}

	switch magic := binary.LittleEndian.Uint32(super); {
	case magic == Magic:
		if err := fs.loadBitmaps(); err != nil {
			return nil, ErrIO("mount", opts.Path, err.Error())
		}
	case loadedImage || !isZero(super):
		return nil, ErrIO("mount", opts.Path, "bad superblock signature")
	default:
		if err := fs.format(); err != nil {
			return nil, ErrIO("mount", opts.Path, err.Error())
		}
	}

	fs.resetOFT()
	return fs, nil
}

// loadBitmaps reads both bitmap blocks into memory.
func (fs *FS) loadBitmaps() error {
	buf := fs.blockBuf()
	if err := fs.store.Read(InodeBitmapIndex, buf); err != nil {
		return err
	}
	fs.inodeBitmap = decodeBitmap(buf, MaxFiles)

	if err := fs.store.Read(DataBitmapIndex, buf); err != nil {
		return err
	}
	fs.dataBitmap = decodeBitmap(buf, fs.layout.numBlocks)
	return nil
}

// format lays down a fresh volume: superblock signature, bitmaps with the
// metadata region pre-marked used, zeroed inode table and data region, then
// persists the image. A store with no persistence target stays in-memory.
func (fs *FS) format() error {
	buf := fs.blockBuf()
	binary.LittleEndian.PutUint32(buf, Magic)
	if err := fs.store.Write(SuperblockIndex, buf); err != nil {
		return err
	}

	fs.inodeBitmap = newBitmap(MaxFiles)
	if err := fs.flushInodeBitmap(); err != nil {
		return err
	}

	fs.dataBitmap = newBitmap(fs.layout.numBlocks)
	for i := 0; i < fs.layout.dataStart; i++ {
		fs.dataBitmap.set(i)
	}
	if err := fs.flushDataBitmap(); err != nil {
		return err
	}

	zero := fs.blockBuf()
	for i := fs.layout.inodeTableStart; i < fs.layout.numBlocks; i++ {
		if err := fs.store.Write(i, zero); err != nil {
			return err
		}
	}

	if err := fs.store.Sync(); err != nil && !errors.Is(err, blockstore.ErrNoPath) {
		return err
	}
	return nil
}

func (fs *FS) resetOFT() {
	for i := range fs.oft {
		fs.oft[i] = openFile{inodeIndex: -1}
	}
}

// blockBuf returns a zeroed one-block scratch buffer.
func (fs *FS) blockBuf() []byte {
	return make([]byte, fs.layout.blockSize)
}

func isZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// Sync persists the current in-memory image to the store's backing location.
func (fs *FS) Sync() error {
	if err := fs.store.Sync(); err != nil {
		return ErrIO("sync", "", err.Error())
	}
	return nil
}

// Unmount closes the underlying block store. Open descriptors become
// meaningless; the volume state was already persisted write-through.
func (fs *FS) Unmount() error {
	return fs.store.Close()
}

// lookupFile resolves a filename to its inode index via a linear scan over
// live inodes, consulting the lookup cache first. Returns -1 if no live
// file carries the name.
func (fs *FS) lookupFile(name string) (int, error) {
	if ino, ok := fs.names.Get(name); ok {
		return ino, nil
	}
	for i := 0; i < MaxFiles; i++ {
		if !fs.inodeBitmap.used(i) {
			continue
		}
		ino, err := fs.readInode(i)
		if err != nil {
			return -1, err
		}
		if ino.Name == name {
			fs.names.Set(name, i)
			return i, nil
		}
	}
	return -1, nil
}

// fdToIndex resolves a user-facing descriptor to its open-file-table slot,
// or -1 if the descriptor is out of range or not open.
func (fs *FS) fdToIndex(fd int) int {
	idx := fd - FDOffset
	if idx < 0 || idx >= OpenFileTableSize || !fs.oft[idx].used {
		return -1
	}
	return idx
}

// Create creates an empty file. The name must be non-empty and fit the
// on-disk filename field.
func (fs *FS) Create(name string) error {
	if name == "" {
		return ErrInval("create", name, "empty filename")
	}
	if len(name) > MaxFilenameLen-1 {
		return ErrInval("create", name, "filename too long")
	}

	existing, err := fs.lookupFile(name)
	if err != nil {
		return err
	}
	if existing >= 0 {
		return ErrExist("create", name)
	}

	idx, ok, err := fs.allocInode()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNospc("create", name)
	}

	if err := fs.writeInode(idx, newInode(name)); err != nil {
		return err
	}
	fs.names.Set(name, idx)
	return nil
}

// Open opens an existing file and returns a descriptor with its file
// pointer at offset 0. Each open gets an independent pointer; the same file
// may be open several times at once.
func (fs *FS) Open(name string) (int, error) {
	idx, err := fs.lookupFile(name)
	if err != nil {
		return 0, err
	}
	if idx < 0 {
		return 0, ErrNoent("open", name)
	}

	for i := range fs.oft {
		if !fs.oft[i].used {
			fs.oft[i] = openFile{used: true, inodeIndex: idx}
			return i + FDOffset, nil
		}
	}
	return 0, ErrMfile("open", name)
}

// Read copies up to len(p) bytes from the descriptor's current position
// into p and advances the file pointer by the bytes copied. At or past the
// logical size it returns 0 with no error. A hole, or an offset past the
// last direct pointer, ends the read early with a short count.
func (fs *FS) Read(fd int, p []byte) (int, error) {
	idx := fs.fdToIndex(fd)
	if idx < 0 {
		return 0, ErrBadf("read", fd)
	}
	if len(p) == 0 {
		return 0, nil
	}

	entry := &fs.oft[idx]
	ino, err := fs.readInode(entry.inodeIndex)
	if err != nil {
		return 0, err
	}

	fp := entry.filePointer
	if fp >= int(ino.Size) {
		return 0, nil
	}

	want := len(p)
	if fp+want > int(ino.Size) {
		want = int(ino.Size) - fp
	}

	buf := fs.blockBuf()
	copied := 0
	for copied < want {
		slot, offset := fs.layout.slotForOffset(fp)
		if slot >= NumDirectPointers {
			break
		}
		dataBlock := ino.Blocks[slot]
		if dataBlock == unallocated {
			break // hole
		}

		if err := fs.store.Read(int(dataBlock), buf); err != nil {
			entry.filePointer = fp
			return copied, err
		}

		chunk := fs.layout.blockSize - offset
		if chunk > want-copied {
			chunk = want - copied
		}
		copy(p[copied:], buf[offset:offset+chunk])

		fp += chunk
		copied += chunk
	}

	entry.filePointer = fp
	return copied, nil
}

// Write copies len(p) bytes from p at the descriptor's current position,
// allocating zero-filled data blocks for untouched slots, then advances the
// file pointer and grows the logical size to cover the bytes placed. The
// inode is persisted once, even when the call ends early: running out of
// direct pointers fails with EFBIG and bitmap exhaustion with ENOSPC, in
// both cases after the bytes already placed were counted and persisted.
func (fs *FS) Write(fd int, p []byte) (int, error) {
	idx := fs.fdToIndex(fd)
	if idx < 0 {
		return 0, ErrBadf("write", fd)
	}
	if len(p) == 0 {
		return 0, nil
	}

	entry := &fs.oft[idx]
	ino, err := fs.readInode(entry.inodeIndex)
	if err != nil {
		return 0, err
	}

	fp := entry.filePointer
	written := 0
	var opErr error

	buf := fs.blockBuf()
	for written < len(p) {
		slot, offset := fs.layout.slotForOffset(fp)
		if slot >= NumDirectPointers {
			opErr = ErrFbig("write", ino.Name)
			break
		}

		if ino.Blocks[slot] == unallocated {
			newBlock, ok, err := fs.allocDataBlock()
			if err != nil {
				opErr = err
				break
			}
			if !ok {
				opErr = ErrNospc("write", ino.Name)
				break
			}
			// fresh blocks start zero-filled
			zero := fs.blockBuf()
			if err := fs.store.Write(newBlock, zero); err != nil {
				opErr = err
				break
			}
			ino.Blocks[slot] = int32(newBlock)
		}

		dataBlock := int(ino.Blocks[slot])
		if err := fs.store.Read(dataBlock, buf); err != nil {
			opErr = err
			break
		}

		chunk := fs.layout.blockSize - offset
		if chunk > len(p)-written {
			chunk = len(p) - written
		}
		copy(buf[offset:], p[written:written+chunk])

		if err := fs.store.Write(dataBlock, buf); err != nil {
			opErr = err
			break
		}

		fp += chunk
		written += chunk
	}

	if fp > int(ino.Size) {
		ino.Size = int32(fp)
	}
	if err := fs.writeInode(entry.inodeIndex, ino); err != nil && opErr == nil {
		opErr = err
	}

	entry.filePointer = fp
	return written, opErr
}

// Close releases the descriptor's open-file-table entry.
func (fs *FS) Close(fd int) error {
	idx := fs.fdToIndex(fd)
	if idx < 0 {
		return ErrBadf("close", fd)
	}
	fs.oft[idx] = openFile{inodeIndex: -1}
	return nil
}

// Delete removes a file, freeing its data blocks and inode slot. Deletion
// is refused while any descriptor references the file.
func (fs *FS) Delete(name string) error {
	idx, err := fs.lookupFile(name)
	if err != nil {
		return err
	}
	if idx < 0 {
		return ErrNoent("delete", name)
	}

	for i := range fs.oft {
		if fs.oft[i].used && fs.oft[i].inodeIndex == idx {
			return ErrBusy("delete", name)
		}
	}

	ino, err := fs.readInode(idx)
	if err != nil {
		return err
	}
	for _, b := range ino.Blocks {
		if b == unallocated {
			continue
		}
		if err := fs.freeDataBlock(int(b)); err != nil {
			return err
		}
	}

	// the record is cleared on disk, not just unlinked from the bitmap
	if err := fs.writeInode(idx, inode{}); err != nil {
		return err
	}
	if err := fs.freeInode(idx); err != nil {
		return err
	}
	fs.names.Delete(name)
	return nil
}

// Stat returns metadata for a file by name.
func (fs *FS) Stat(name string) (*FileInfo, error) {
	idx, err := fs.lookupFile(name)
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return nil, ErrNoent("stat", name)
	}
	ino, err := fs.readInode(idx)
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		Name:      ino.Name,
		Size:      int(ino.Size),
		Inode:     idx,
		NumBlocks: ino.allocatedBlocks(),
	}, nil
}

// Files lists every live file on the volume, sorted by name.
func (fs *FS) Files() ([]FileInfo, error) {
	var infos []FileInfo
	for i := 0; i < MaxFiles; i++ {
		if !fs.inodeBitmap.used(i) {
			continue
		}
		ino, err := fs.readInode(i)
		if err != nil {
			return nil, err
		}
		infos = append(infos, FileInfo{
			Name:      ino.Name,
			Size:      int(ino.Size),
			Inode:     i,
			NumBlocks: ino.allocatedBlocks(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// ReadFile reads the entire contents of a file.
func (fs *FS) ReadFile(name string) ([]byte, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return nil, err
	}
	fd, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer fs.Close(fd)

	data := make([]byte, info.Size)
	total := 0
	for total < len(data) {
		n, err := fs.Read(fd, data[total:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break // hole or truncated addressable region
		}
		total += n
	}
	return data[:total], nil
}

// WriteFile writes data to a file at offset 0, creating it if it does not
// exist. An existing larger file keeps its old tail; there is no truncate.
func (fs *FS) WriteFile(name string, data []byte) error {
	if existing, err := fs.lookupFile(name); err != nil {
		return err
	} else if existing < 0 {
		if err := fs.Create(name); err != nil {
			return err
		}
	}
	fd, err := fs.Open(name)
	if err != nil {
		return err
	}
	defer fs.Close(fd)

	total := 0
	for total < len(data) {
		n, err := fs.Write(fd, data[total:])
		total += n
		if err != nil {
			return err
		}
	}
	return nil
}

// LookupCacheStats reports filename-lookup cache statistics.
func (fs *FS) LookupCacheStats() (hits, misses int64, entries int) {
	s := fs.names.Stats()
	return s.Hits, s.Misses, s.Entries
}
