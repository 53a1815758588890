package tinyfs

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/tinyfs/tinyfs/blockstore"
)

// newTestFS mounts a fresh in-memory volume with the default geometry.
func newTestFS(t *testing.T) *FS {
	t.Helper()
	store, err := blockstore.NewMem(DefaultBlockSize, DefaultNumBlocks)
	if err != nil {
		t.Fatalf("NewMem failed: %v", err)
	}
	fs, err := Mount(Options{Store: store})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	return fs
}

func TestCreate(t *testing.T) {
	fs := newTestFS(t)

	if err := fs.Create("alpha.txt"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("duplicate name", func(t *testing.T) {
		err := fs.Create("alpha.txt")
		if !IsExist(err) {
			t.Errorf("duplicate Create = %v, want EEXIST", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		err := fs.Create("")
		var fsErr *FSError
		if !errors.As(err, &fsErr) || fsErr.Code != EINVAL {
			t.Errorf("Create(\"\") = %v, want EINVAL", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		name := ""
		for len(name) < MaxFilenameLen {
			name += "y"
		}
		err := fs.Create(name)
		var fsErr *FSError
		if !errors.As(err, &fsErr) || fsErr.Code != EINVAL {
			t.Errorf("oversized Create = %v, want EINVAL", err)
		}
	})

	t.Run("new file is empty", func(t *testing.T) {
		info, err := fs.Stat("alpha.txt")
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if info.Size != 0 || info.NumBlocks != 0 {
			t.Errorf("fresh file has size %d, %d blocks; want 0, 0", info.Size, info.NumBlocks)
		}
	})
}

func TestOpen(t *testing.T) {
	fs := newTestFS(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := fs.Open("ghost.txt")
		if !IsNotExist(err) {
			t.Errorf("Open on missing file = %v, want ENOENT", err)
		}
		// a failed open must not claim an open-file-table slot
		for i, e := range fs.oft {
			if e.used {
				t.Errorf("oft[%d] claimed by a failed open", i)
			}
		}
	})

	if err := fs.Create("alpha.txt"); err != nil {
		t.Fatal(err)
	}

	t.Run("descriptors avoid the standard streams", func(t *testing.T) {
		fd, err := fs.Open("alpha.txt")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if fd != FDOffset {
			t.Errorf("first descriptor = %d, want %d", fd, FDOffset)
		}
		if err := fs.Close(fd); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("independent pointers per open", func(t *testing.T) {
		fd1, err := fs.Open("alpha.txt")
		if err != nil {
			t.Fatal(err)
		}
		fd2, err := fs.Open("alpha.txt")
		if err != nil {
			t.Fatal(err)
		}
		defer fs.Close(fd1)
		defer fs.Close(fd2)

		if _, err := fs.Write(fd1, []byte("abcdef")); err != nil {
			t.Fatal(err)
		}
		buf := make([]byte, 6)
		n, err := fs.Read(fd2, buf)
		if err != nil {
			t.Fatal(err)
		}
		if n != 6 || string(buf) != "abcdef" {
			t.Errorf("second descriptor read %q (%d bytes), want %q", buf[:n], n, "abcdef")
		}
	})
}

func TestOpenFileTableExhaustion(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("alpha.txt"); err != nil {
		t.Fatal(err)
	}

	fds := make([]int, 0, OpenFileTableSize)
	for i := 0; i < OpenFileTableSize; i++ {
		fd, err := fs.Open("alpha.txt")
		if err != nil {
			t.Fatalf("open %d failed: %v", i, err)
		}
		fds = append(fds, fd)
	}

	_, err := fs.Open("alpha.txt")
	var fsErr *FSError
	if !errors.As(err, &fsErr) || fsErr.Code != EMFILE {
		t.Errorf("open past table capacity = %v, want EMFILE", err)
	}

	// closing any slot frees it for reuse
	if err := fs.Close(fds[2]); err != nil {
		t.Fatal(err)
	}
	fd, err := fs.Open("alpha.txt")
	if err != nil {
		t.Fatalf("open after close failed: %v", err)
	}
	if fd != fds[2] {
		t.Errorf("reused descriptor = %d, want %d", fd, fds[2])
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("data.bin"); err != nil {
		t.Fatal(err)
	}

	payload := make([]byte, 3*DefaultBlockSize/2) // spans a block boundary
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	fd, err := fs.Open("data.bin")
	if err != nil {
		t.Fatal(err)
	}
	n, err := fs.Write(fd, payload)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write = %d bytes, want %d", n, len(payload))
	}

	t.Run("read shares the write pointer", func(t *testing.T) {
		buf := make([]byte, 10)
		n, err := fs.Read(fd, buf)
		if err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("read after write returned %d bytes, want 0 (pointer at end)", n)
		}
	})

	if err := fs.Close(fd); err != nil {
		t.Fatal(err)
	}

	t.Run("fresh descriptor reads from offset 0", func(t *testing.T) {
		fd, err := fs.Open("data.bin")
		if err != nil {
			t.Fatal(err)
		}
		defer fs.Close(fd)

		got := make([]byte, len(payload))
		n, err := fs.Read(fd, got)
		if err != nil {
			t.Fatal(err)
		}
		if n != len(payload) || !bytes.Equal(got, payload) {
			t.Errorf("round trip read %d bytes, mismatch=%v", n, !bytes.Equal(got[:n], payload[:n]))
		}
	})

	t.Run("oversized buffer returns the short count", func(t *testing.T) {
		fd, err := fs.Open("data.bin")
		if err != nil {
			t.Fatal(err)
		}
		defer fs.Close(fd)

		got := make([]byte, len(payload)+100)
		n, err := fs.Read(fd, got)
		if err != nil {
			t.Fatal(err)
		}
		if n != len(payload) {
			t.Errorf("Read = %d bytes, want %d", n, len(payload))
		}
	})
}

func TestReadWriteDegenerateInputs(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("f"); err != nil {
		t.Fatal(err)
	}
	fd, err := fs.Open("f")
	if err != nil {
		t.Fatal(err)
	}

	if n, err := fs.Read(fd, nil); n != 0 || err != nil {
		t.Errorf("Read(nil) = (%d, %v), want (0, nil)", n, err)
	}
	if n, err := fs.Write(fd, nil); n != 0 || err != nil {
		t.Errorf("Write(nil) = (%d, %v), want (0, nil)", n, err)
	}
	if n, err := fs.Read(fd, []byte{}); n != 0 || err != nil {
		t.Errorf("Read(empty) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestBadDescriptors(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("f"); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 8)
	for _, fd := range []int{-1, 0, 2, 999} {
		if _, err := fs.Read(fd, buf); !IsBadDescriptor(err) {
			t.Errorf("Read(fd=%d) = %v, want EBADF", fd, err)
		}
		if _, err := fs.Write(fd, buf); !IsBadDescriptor(err) {
			t.Errorf("Write(fd=%d) = %v, want EBADF", fd, err)
		}
		if err := fs.Close(fd); !IsBadDescriptor(err) {
			t.Errorf("Close(fd=%d) = %v, want EBADF", fd, err)
		}
	}

	t.Run("closed descriptor", func(t *testing.T) {
		fd, err := fs.Open("f")
		if err != nil {
			t.Fatal(err)
		}
		if err := fs.Close(fd); err != nil {
			t.Fatal(err)
		}
		if _, err := fs.Read(fd, buf); !IsBadDescriptor(err) {
			t.Errorf("Read on closed fd = %v, want EBADF", err)
		}
	})
}

func TestDelete(t *testing.T) {
	fs := newTestFS(t)

	t.Run("missing file", func(t *testing.T) {
		if err := fs.Delete("ghost"); !IsNotExist(err) {
			t.Errorf("Delete on missing file = %v, want ENOENT", err)
		}
	})

	if err := fs.Create("beta.txt"); err != nil {
		t.Fatal(err)
	}
	fd, err := fs.Open("beta.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Write(fd, bytes.Repeat([]byte("z"), 2*DefaultBlockSize)); err != nil {
		t.Fatal(err)
	}

	t.Run("refused while open", func(t *testing.T) {
		if err := fs.Delete("beta.txt"); !IsInUse(err) {
			t.Errorf("Delete on open file = %v, want EBUSY", err)
		}
	})

	if err := fs.Close(fd); err != nil {
		t.Fatal(err)
	}

	t.Run("frees inode and data blocks", func(t *testing.T) {
		info, err := fs.Stat("beta.txt")
		if err != nil {
			t.Fatal(err)
		}
		if err := fs.Delete("beta.txt"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if fs.inodeBitmap.used(info.Inode) {
			t.Error("inode bitmap bit still set after delete")
		}
		for i := fs.layout.dataStart; i < fs.layout.numBlocks; i++ {
			if fs.dataBitmap.used(i) {
				t.Errorf("data block %d still marked used after delete", i)
			}
		}
		if _, err := fs.Stat("beta.txt"); !IsNotExist(err) {
			t.Errorf("Stat after delete = %v, want ENOENT", err)
		}
	})

	t.Run("second delete fails", func(t *testing.T) {
		if err := fs.Delete("beta.txt"); !IsNotExist(err) {
			t.Errorf("second Delete = %v, want ENOENT", err)
		}
	})
}

func TestInodeExhaustion(t *testing.T) {
	fs := newTestFS(t)

	names := make([]string, MaxFiles)
	for i := range names {
		names[i] = "f" + strconv.Itoa(i)
		if err := fs.Create(names[i]); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}

	if err := fs.Create("overflow"); !IsOutOfSpace(err) {
		t.Errorf("Create with no inodes left = %v, want ENOSPC", err)
	}

	// freeing one slot makes the next create succeed
	if err := fs.Delete(names[7]); err != nil {
		t.Fatal(err)
	}
	if err := fs.Create("overflow"); err != nil {
		t.Errorf("Create after delete failed: %v", err)
	}
}

func TestFileTooBig(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("big"); err != nil {
		t.Fatal(err)
	}
	fd, err := fs.Open("big")
	if err != nil {
		t.Fatal(err)
	}

	maxSize := NumDirectPointers * DefaultBlockSize

	t.Run("single oversized write is clipped at the limit", func(t *testing.T) {
		payload := bytes.Repeat([]byte("q"), maxSize+100)
		n, err := fs.Write(fd, payload)
		var fsErr *FSError
		if !errors.As(err, &fsErr) || fsErr.Code != EFBIG {
			t.Fatalf("oversized Write = %v, want EFBIG", err)
		}
		if n != maxSize {
			t.Errorf("Write = %d bytes before failing, want %d", n, maxSize)
		}
	})

	t.Run("bytes before the limit stay persisted", func(t *testing.T) {
		info, err := fs.Stat("big")
		if err != nil {
			t.Fatal(err)
		}
		if info.Size != maxSize {
			t.Errorf("size = %d after partial write, want %d", info.Size, maxSize)
		}
		if info.NumBlocks != NumDirectPointers {
			t.Errorf("allocated blocks = %d, want %d", info.NumBlocks, NumDirectPointers)
		}

		rfd, err := fs.Open("big")
		if err != nil {
			t.Fatal(err)
		}
		defer fs.Close(rfd)
		buf := make([]byte, maxSize)
		if n, err := fs.Read(rfd, buf); err != nil || n != maxSize {
			t.Fatalf("read back = (%d, %v), want (%d, nil)", n, err, maxSize)
		}
	})

	t.Run("write at the limit fails immediately", func(t *testing.T) {
		n, err := fs.Write(fd, []byte("x"))
		var fsErr *FSError
		if !errors.As(err, &fsErr) || fsErr.Code != EFBIG {
			t.Errorf("Write at max size = %v, want EFBIG", err)
		}
		if n != 0 {
			t.Errorf("Write at max size moved %d bytes, want 0", n)
		}
	})
}

func TestDataBlockExhaustion(t *testing.T) {
	// 13 blocks leave exactly 2 data blocks after the metadata region
	store, err := blockstore.NewMem(DefaultBlockSize, 13)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := Mount(Options{Store: store})
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}
	if got := fs.layout.numBlocks - fs.layout.dataStart; got != 2 {
		t.Fatalf("data blocks = %d, want 2", got)
	}

	if err := fs.Create("f"); err != nil {
		t.Fatal(err)
	}
	fd, err := fs.Open("f")
	if err != nil {
		t.Fatal(err)
	}

	payload := bytes.Repeat([]byte("w"), 3*DefaultBlockSize)
	n, err := fs.Write(fd, payload)
	if !IsOutOfSpace(err) {
		t.Fatalf("Write past capacity = %v, want ENOSPC", err)
	}
	if n != 2*DefaultBlockSize {
		t.Errorf("Write = %d bytes before failing, want %d", n, 2*DefaultBlockSize)
	}

	// progress up to the failure is persisted and the pointer reflects it
	info, err := fs.Stat("f")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != 2*DefaultBlockSize {
		t.Errorf("size = %d, want %d", info.Size, 2*DefaultBlockSize)
	}

	// freeing blocks by deleting makes allocation succeed again
	if err := fs.Close(fd); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete("f"); err != nil {
		t.Fatal(err)
	}
	if err := fs.Create("g"); err != nil {
		t.Fatal(err)
	}
	gfd, err := fs.Open("g")
	if err != nil {
		t.Fatal(err)
	}
	if n, err := fs.Write(gfd, payload[:DefaultBlockSize]); err != nil || n != DefaultBlockSize {
		t.Errorf("Write after delete = (%d, %v), want (%d, nil)", n, err, DefaultBlockSize)
	}
}

func TestHoleReadStopsShort(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("sparse"); err != nil {
		t.Fatal(err)
	}

	f, err := fs.OpenFile("sparse")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	// write only the third block, leaving holes at slots 0 and 1
	if _, err := f.Seek(int64(2*DefaultBlockSize), io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("tail")); err != nil {
		t.Fatal(err)
	}

	fd, err := fs.Open("sparse")
	if err != nil {
		t.Fatal(err)
	}
	defer fs.Close(fd)

	buf := make([]byte, DefaultBlockSize)
	n, err := fs.Read(fd, buf)
	if err != nil {
		t.Fatalf("Read over hole failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Read over hole = %d bytes, want 0 (short count, not an error)", n)
	}
}

func TestBootPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.img")

	fs, err := Boot(path)
	if err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	// a fresh volume was formatted and persisted
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("image file missing after fresh boot: %v", err)
	}

	if err := fs.WriteFile("note.txt", []byte("survives remount")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	remounted, err := Boot(path)
	if err != nil {
		t.Fatalf("remount failed: %v", err)
	}
	data, err := remounted.ReadFile("note.txt")
	if err != nil {
		t.Fatalf("ReadFile after remount failed: %v", err)
	}
	if string(data) != "survives remount" {
		t.Errorf("ReadFile = %q, want %q", data, "survives remount")
	}

	t.Run("open file table is reset on mount", func(t *testing.T) {
		for i, e := range remounted.oft {
			if e.used {
				t.Errorf("oft[%d] used after mount", i)
			}
		}
	})
}

func TestMountRejectsForeignImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.img")
	junk := make([]byte, DefaultBlockSize*DefaultNumBlocks)
	binary.LittleEndian.PutUint32(junk, 0xdeadbeef)
	if err := os.WriteFile(path, junk, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Boot(path)
	var fsErr *FSError
	if !errors.As(err, &fsErr) || fsErr.Code != EIO {
		t.Errorf("Boot on foreign image = %v, want EIO", err)
	}
}

func TestMountOnSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volume.db")
	store, err := blockstore.OpenSQLite(path, DefaultBlockSize, DefaultNumBlocks)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}

	fs, err := Mount(Options{Store: store})
	if err != nil {
		t.Fatalf("Mount on sqlite store failed: %v", err)
	}
	if err := fs.WriteFile("db.txt", []byte("rows as blocks")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Unmount(); err != nil {
		t.Fatalf("Unmount failed: %v", err)
	}

	// the volume mounts again from the database with its contents intact
	store, err = blockstore.OpenSQLite(path, DefaultBlockSize, DefaultNumBlocks)
	if err != nil {
		t.Fatal(err)
	}
	fs, err = Mount(Options{Store: store})
	if err != nil {
		t.Fatalf("remount on sqlite store failed: %v", err)
	}
	defer fs.Unmount()

	data, err := fs.ReadFile("db.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rows as blocks" {
		t.Errorf("ReadFile = %q, want %q", data, "rows as blocks")
	}
}

func TestSyncWithoutPath(t *testing.T) {
	fs := newTestFS(t)
	err := fs.Sync()
	var fsErr *FSError
	if !errors.As(err, &fsErr) || fsErr.Code != EIO {
		t.Errorf("Sync with no path = %v, want EIO", err)
	}
}

func TestLookupCache(t *testing.T) {
	fs := newTestFS(t)
	if err := fs.Create("cached.txt"); err != nil {
		t.Fatal(err)
	}

	// create primed the cache, so opens hit it
	fd, err := fs.Open("cached.txt")
	if err != nil {
		t.Fatal(err)
	}
	fs.Close(fd)

	hits, _, _ := fs.LookupCacheStats()
	if hits == 0 {
		t.Error("expected lookup cache hits after open of a created file")
	}

	t.Run("deleted names are forgotten", func(t *testing.T) {
		if err := fs.Delete("cached.txt"); err != nil {
			t.Fatal(err)
		}
		if _, err := fs.Open("cached.txt"); !IsNotExist(err) {
			t.Errorf("Open after delete = %v, want ENOENT", err)
		}
	})
}

func TestEndToEndScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.img")

	fs, err := Boot(path)
	if err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	if err := fs.Create("a.txt"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fd, err := fs.Open("a.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	msg := []byte("Hello TinyFS")
	n, err := fs.Write(fd, msg)
	if err != nil || n != len(msg) {
		t.Fatalf("Write = (%d, %v), want (%d, nil)", n, err, len(msg))
	}

	rfd, err := fs.Open("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 50)
	n, err = fs.Read(rfd, buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if n != len(msg) {
		t.Errorf("Read = %d bytes, want %d (not the buffer size)", n, len(msg))
	}
	if string(buf[:n]) != "Hello TinyFS" {
		t.Errorf("Read content = %q, want %q", buf[:n], "Hello TinyFS")
	}

	if err := fs.Close(fd); err != nil {
		t.Fatal(err)
	}
	if err := fs.Close(rfd); err != nil {
		t.Fatal(err)
	}
	if err := fs.Delete("a.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := fs.Delete("a.txt"); !IsNotExist(err) {
		t.Errorf("second Delete = %v, want ENOENT", err)
	}
}

