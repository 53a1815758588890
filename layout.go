package tinyfs

import "fmt"

// layout holds the block-level geometry of a mounted volume, computed once
// at mount from the store's block size and count.
type layout struct {
	blockSize        int
	numBlocks        int
	inodesPerBlock   int // whole records per table block, rounded down
	inodeTableBlocks int
	inodeTableStart  int
	dataStart        int // first allocatable data block
}

// computeLayout derives the volume layout and validates that the geometry
// can host it: each bitmap must fit its single block (one int32 cell per
// entry) and at least one data block must remain after the metadata region.
func computeLayout(blockSize, numBlocks int) (layout, error) {
	l := layout{blockSize: blockSize, numBlocks: numBlocks}

	l.inodesPerBlock = blockSize / inodeSize
	if l.inodesPerBlock == 0 {
		return layout{}, fmt.Errorf("block size %d cannot hold a %d-byte inode record", blockSize, inodeSize)
	}
	l.inodeTableBlocks = (MaxFiles + l.inodesPerBlock - 1) / l.inodesPerBlock
	l.inodeTableStart = InodeTableIndex
	l.dataStart = l.inodeTableStart + l.inodeTableBlocks

	if 4*MaxFiles > blockSize {
		return layout{}, fmt.Errorf("inode bitmap (%d cells) does not fit one %d-byte block", MaxFiles, blockSize)
	}
	if 4*numBlocks > blockSize {
		return layout{}, fmt.Errorf("data bitmap (%d cells) does not fit one %d-byte block", numBlocks, blockSize)
	}
	if l.dataStart >= numBlocks {
		return layout{}, fmt.Errorf("no data blocks left after %d metadata blocks", l.dataStart)
	}
	return l, nil
}

// inodeLocation maps an inode index to the block holding its record and the
// byte offset of the record within that block. It is the sole translation
// between inode indices and physical locations.
func (l layout) inodeLocation(i int) (block, offset int) {
	return l.inodeTableStart + i/l.inodesPerBlock, (i % l.inodesPerBlock) * inodeSize
}

// slotForOffset maps a byte offset within a file to the direct-pointer slot
// covering it and the byte offset within that block.
func (l layout) slotForOffset(fp int) (slot, offset int) {
	return fp / l.blockSize, fp % l.blockSize
}

// maxFileSize is the largest logical size addressable through the direct
// pointers.
func (l layout) maxFileSize() int {
	return NumDirectPointers * l.blockSize
}
