//go:build linux

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMem is a Bus over a window of physical memory mapped from /dev/mem.
// It lets the drivers poke a real CLINT or PLIC from a Linux userspace
// process with sufficient privilege.  Addresses are physical.
type DevMem struct {
	base uintptr
	mem  []byte
}

// OpenDevMem maps size bytes of physical memory starting at base, which
// must be page aligned.
func OpenDevMem(base, size uintptr) (*DevMem, error) {
	return openMapped("/dev/mem", base, size)
}

// openMapped maps size bytes of path at offset base.  Anything that can
// be mmapped shared works, which is how the tests get a DevMem.
func openMapped(path string, base, size uintptr) (*DevMem, error) {
	if base%uintptr(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("base %#x is not page aligned", base)
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)
	mem, err := unix.Mmap(fd, int64(base), int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %#x+%#x: %w", base, size, err)
	}
	return &DevMem{base: base, mem: mem}, nil
}

func (d *DevMem) Close() error {
	return unix.Munmap(d.mem)
}

func (d *DevMem) ptr(addr uintptr, size int, write bool) unsafe.Pointer {
	checkAlign(addr, size, write)
	if addr < d.base || addr-d.base+uintptr(size) > uintptr(len(d.mem)) {
		panic(&BusError{Addr: addr, Size: size, Write: write})
	}
	return unsafe.Pointer(&d.mem[addr-d.base])
}

// sync/atomic gives single, unreordered accesses, which is what a
// volatile register needs.  There is no atomic byte load, so byte
// registers go through the containing word.

func (d *DevMem) Read8(addr uintptr) uint8 {
	w := atomic.LoadUint32((*uint32)(d.ptr(addr&^3, 4, false)))
	return uint8(w >> (8 * (addr & 3)))
}

func (d *DevMem) Write8(addr uintptr, v uint8) {
	p := (*uint32)(d.ptr(addr&^3, 4, true))
	shift := 8 * (addr & 3)
	for {
		old := atomic.LoadUint32(p)
		n := old&^(0xff<<shift) | uint32(v)<<shift
		if atomic.CompareAndSwapUint32(p, old, n) {
			return
		}
	}
}

func (d *DevMem) Read32(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(d.ptr(addr, 4, false)))
}

func (d *DevMem) Write32(addr uintptr, v uint32) {
	atomic.StoreUint32((*uint32)(d.ptr(addr, 4, true)), v)
}

func (d *DevMem) Read64(addr uintptr) uint64 {
	return atomic.LoadUint64((*uint64)(d.ptr(addr, 8, false)))
}

func (d *DevMem) Write64(addr uintptr, v uint64) {
	atomic.StoreUint64((*uint64)(d.ptr(addr, 8, true)), v)
}

func (d *DevMem) Or32(addr uintptr, bits uint32) uint32 {
	p := (*uint32)(d.ptr(addr, 4, true))
	for {
		old := atomic.LoadUint32(p)
		if atomic.CompareAndSwapUint32(p, old, old|bits) {
			return old
		}
	}
}

func (d *DevMem) And32(addr uintptr, bits uint32) uint32 {
	p := (*uint32)(d.ptr(addr, 4, true))
	for {
		old := atomic.LoadUint32(p)
		if atomic.CompareAndSwapUint32(p, old, old&bits) {
			return old
		}
	}
}
