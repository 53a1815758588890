package tinyfs

import "encoding/binary"

// inode is the in-memory form of one on-disk file record: a NUL-terminated
// filename field, a logical size, and the direct data-block pointers.
type inode struct {
	Name   string
	Size   int32
	Blocks [NumDirectPointers]int32
}

// newInode returns a zero-length inode with every pointer unallocated.
func newInode(name string) inode {
	ino := inode{Name: name}
	for i := range ino.Blocks {
		ino.Blocks[i] = unallocated
	}
	return ino
}

// marshalInode encodes the record into buf at the fixed inodeSize stride:
// filename (NUL-padded), int32 size, NumDirectPointers int32 pointers, all
// little-endian.
func marshalInode(ino inode, buf []byte) {
	for i := range buf[:inodeSize] {
		buf[i] = 0
	}
	copy(buf[:MaxFilenameLen-1], ino.Name)
	binary.LittleEndian.PutUint32(buf[MaxFilenameLen:], uint32(ino.Size))
	for i, b := range ino.Blocks {
		binary.LittleEndian.PutUint32(buf[MaxFilenameLen+4+4*i:], uint32(b))
	}
}

// unmarshalInode decodes one record from buf.
func unmarshalInode(buf []byte) inode {
	var ino inode
	ino.Name = trimNul(buf[:MaxFilenameLen])
	ino.Size = int32(binary.LittleEndian.Uint32(buf[MaxFilenameLen:]))
	for i := range ino.Blocks {
		ino.Blocks[i] = int32(binary.LittleEndian.Uint32(buf[MaxFilenameLen+4+4*i:]))
	}
	return ino
}

// trimNul returns the string up to the first NUL in a fixed-width field.
func trimNul(b []byte) string {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}

// allocatedBlocks counts the direct pointers that reference a data block.
func (ino inode) allocatedBlocks() int {
	n := 0
	for _, b := range ino.Blocks {
		if b != unallocated {
			n++
		}
	}
	return n
}

// readInode loads inode i from the table through the block store.
func (fs *FS) readInode(i int) (inode, error) {
	block, offset := fs.layout.inodeLocation(i)
	buf := fs.blockBuf()
	if err := fs.store.Read(block, buf); err != nil {
		return inode{}, err
	}
	return unmarshalInode(buf[offset : offset+inodeSize]), nil
}

// writeInode splices inode i into its table block and persists the block.
func (fs *FS) writeInode(i int, ino inode) error {
	block, offset := fs.layout.inodeLocation(i)
	buf := fs.blockBuf()
	if err := fs.store.Read(block, buf); err != nil {
		return err
	}
	marshalInode(ino, buf[offset:offset+inodeSize])
	return fs.store.Write(block, buf)
}
