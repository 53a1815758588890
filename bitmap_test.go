package tinyfs

import "testing"

func TestBitmapFirstFit(t *testing.T) {
	b := newBitmap(8)

	if i := b.firstFree(0); i != 0 {
		t.Errorf("firstFree(0) = %d, want 0", i)
	}
	b.set(0)
	b.set(1)
	b.set(3)
	if i := b.firstFree(0); i != 2 {
		t.Errorf("firstFree(0) = %d, want 2", i)
	}
	if i := b.firstFree(3); i != 4 {
		t.Errorf("firstFree(3) = %d, want 4", i)
	}

	b.clear(1)
	if i := b.firstFree(0); i != 1 {
		t.Errorf("firstFree after clear = %d, want 1 (lowest index wins)", i)
	}

	for i := range b {
		b.set(i)
	}
	if i := b.firstFree(0); i != -1 {
		t.Errorf("firstFree on full bitmap = %d, want -1", i)
	}
}

func TestBitmapBlockEncoding(t *testing.T) {
	b := newBitmap(6)
	b.set(0)
	b.set(4)

	buf := make([]byte, 64)
	b.encode(buf)
	got := decodeBitmap(buf, 6)

	for i := range b {
		if got.used(i) != b.used(i) {
			t.Errorf("bit %d = %v after round trip, want %v", i, got.used(i), b.used(i))
		}
	}

	// remainder of the block stays zero
	for i := 4 * 6; i < len(buf); i++ {
		if buf[i] != 0 {
			t.Fatalf("byte %d = %#x, want 0 past the cells", i, buf[i])
		}
	}
}
