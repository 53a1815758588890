package tinyfs

import "encoding/binary"

// bitmap tracks free/used status with one int32 cell per entry, matching
// the on-disk encoding (0 = free, 1 = used).
type bitmap []int32

func newBitmap(n int) bitmap {
	return make(bitmap, n)
}

func (b bitmap) used(i int) bool { return b[i] != 0 }
func (b bitmap) set(i int)       { b[i] = 1 }
func (b bitmap) clear(i int)     { b[i] = 0 }

// firstFree returns the lowest free index at or after from, or -1 if none.
func (b bitmap) firstFree(from int) int {
	for i := from; i < len(b); i++ {
		if b[i] == 0 {
			return i
		}
	}
	return -1
}

// encode writes the cells little-endian at the start of a block buffer,
// zeroing the remainder.
func (b bitmap) encode(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	for i, cell := range b {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(cell))
	}
}

// decodeBitmap reads n cells from a block buffer.
func decodeBitmap(buf []byte, n int) bitmap {
	b := newBitmap(n)
	for i := range b {
		b[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return b
}

// flushInodeBitmap persists the inode bitmap block (write-through).
func (fs *FS) flushInodeBitmap() error {
	buf := fs.blockBuf()
	fs.inodeBitmap.encode(buf)
	return fs.store.Write(InodeBitmapIndex, buf)
}

// flushDataBitmap persists the data bitmap block (write-through).
func (fs *FS) flushDataBitmap() error {
	buf := fs.blockBuf()
	fs.dataBitmap.encode(buf)
	return fs.store.Write(DataBitmapIndex, buf)
}

// allocInode claims the first free inode slot. ok is false when every slot
// is used; err reports block-store failures only.
func (fs *FS) allocInode() (i int, ok bool, err error) {
	i = fs.inodeBitmap.firstFree(0)
	if i < 0 {
		return 0, false, nil
	}
	fs.inodeBitmap.set(i)
	return i, true, fs.flushInodeBitmap()
}

// freeInode clears slot i. Out-of-range indices are ignored.
func (fs *FS) freeInode(i int) error {
	if i < 0 || i >= len(fs.inodeBitmap) {
		return nil
	}
	fs.inodeBitmap.clear(i)
	return fs.flushInodeBitmap()
}

// allocDataBlock claims the first free block at or after the data-region
// start. Metadata blocks are pre-marked used at format time and never
// handed out.
func (fs *FS) allocDataBlock() (n int, ok bool, err error) {
	n = fs.dataBitmap.firstFree(fs.layout.dataStart)
	if n < 0 {
		return 0, false, nil
	}
	fs.dataBitmap.set(n)
	return n, true, fs.flushDataBitmap()
}

// freeDataBlock clears block n. Out-of-range indices are ignored.
func (fs *FS) freeDataBlock(n int) error {
	if n < 0 || n >= len(fs.dataBitmap) {
		return nil
	}
	fs.dataBitmap.clear(n)
	return fs.flushDataBitmap()
}
