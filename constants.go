package tinyfs

// Magic is the 32-bit signature stored little-endian at the start of the
// superblock. A volume whose first block does not carry it is not a TinyFS
// image.
const Magic uint32 = 0x12345678

// Block roles at the front of every volume.
const (
	SuperblockIndex  = 0
	InodeBitmapIndex = 1
	DataBitmapIndex  = 2
	InodeTableIndex  = 3
)

// Default volume geometry. Both bitmaps must fit their single block
// (one int32 cell per entry), which bounds MaxFiles and the block count;
// Mount validates this for overridden geometries.
const (
	DefaultBlockSize = 512
	DefaultNumBlocks = 128
)

// MaxFiles is the number of inode slots, and therefore the maximum number
// of live files on a volume.
const MaxFiles = 96

// MaxFilenameLen is the size of the on-disk filename field, including the
// terminating NUL. Names may be at most MaxFilenameLen-1 bytes.
const MaxFilenameLen = 16

// NumDirectPointers is the number of direct data-block pointers per inode.
// There is no indirection, so it bounds the file size at
// NumDirectPointers * block size bytes.
const NumDirectPointers = 5

// OpenFileTableSize is the maximum number of simultaneously open descriptors.
const OpenFileTableSize = 5

// FDOffset is added to open-file-table slot indices to form user-facing
// descriptors, so descriptors never collide with stdin/stdout/stderr.
const FDOffset = 3

// inodeSize is the on-disk record stride: filename field, int32 size,
// NumDirectPointers int32 pointers. Records never span a block boundary.
const inodeSize = MaxFilenameLen + 4 + 4*NumDirectPointers

// unallocated marks a direct-pointer slot with no data block behind it.
const unallocated int32 = -1

// POSIX-style error codes carried by FSError.
const (
	EIO    = 5  // I/O error, or a corrupted/foreign image at mount
	ENOENT = 2  // No such file
	EBADF  = 9  // Bad file descriptor
	EBUSY  = 16 // File is open; delete refused
	EEXIST = 17 // File exists
	EFBIG  = 27 // Write past the last direct pointer
	EINVAL = 22 // Invalid argument (empty or oversized filename)
	EMFILE = 24 // Open file table full
	ENOSPC = 28 // Out of inodes or data blocks
)
