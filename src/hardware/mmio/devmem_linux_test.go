//go:build linux

package mmio

import (
	"os"
	"path/filepath"
	"testing"
)

func mappedFile(t *testing.T, size int) (*DevMem, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "window")
	if err := os.WriteFile(path, make([]byte, size), 0600); err != nil {
		t.Fatal(err)
	}
	d, err := openMapped(path, 0, uintptr(size))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d, path
}

func TestDevMemAccess(t *testing.T) {
	d, path := mappedFile(t, os.Getpagesize())
	d.Write32(0x10, 0xdeadbeef)
	d.Write8(0x11, 0x00)
	if got := d.Read32(0x10); got != 0xdead00ef {
		t.Errorf("byte store went wrong, got %#x", got)
	}
	if got := d.Read8(0x13); got != 0xde {
		t.Errorf("expected 0xde, got %#x", got)
	}
	d.Write64(0x20, 0x0102030405060708)
	if d.Read32(0x20) != 0x05060708 {
		t.Errorf("not little endian")
	}
	if err := Reg32(d, 0x30).AtomicSetBits(0x5); err != nil {
		t.Fatal(err)
	}
	if old := d.And32(0x30, ^uint32(1)); old != 0x5 {
		t.Errorf("expected the old word back, got %#x", old)
	}
	if d.Read32(0x30) != 0x4 {
		t.Errorf("expected 0x4, got %#x", d.Read32(0x30))
	}

	// stores land in the file
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if raw[0x10] != 0xef || raw[0x27] != 0x01 {
		t.Errorf("mapping is not shared")
	}
}

func TestDevMemBounds(t *testing.T) {
	d, _ := mappedFile(t, os.Getpagesize())
	expectBusError(t, func() { d.Read32(uintptr(os.Getpagesize())) })
	expectBusError(t, func() { d.Write64(uintptr(os.Getpagesize())-4, 0) })
	if _, err := openMapped("/nonexistent", 0, 16); err == nil {
		t.Errorf("expected an open error")
	}
	if _, err := OpenDevMem(1, 16); err == nil {
		t.Errorf("expected an alignment error")
	}
}
