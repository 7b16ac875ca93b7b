package upbeat

import "fmt"

// BitSet is a fixed size set of small integers packed into 64 bit words.
type BitSet struct {
	size uint32
	data []uint64
}

type BitIndex uint32

// NewBitSet returns an empty set able to hold bits 0..size-1.  Sizes are
// rounded up to a multiple of 64.
func NewBitSet(size uint32) *BitSet {
	words := (size + 63) >> 6
	return &BitSet{size: words << 6, data: make([]uint64, words)}
}

func (b *BitSet) Size() uint32 { return b.size }

func (b *BitSet) check(bit BitIndex) {
	if uint32(bit) >= b.size {
		panic(fmt.Sprintf("bit %d outside bitset of size %d", bit, b.size))
	}
}

func (b *BitSet) On(bit BitIndex) bool {
	b.check(bit)
	return b.data[bit>>6]&(uint64(1)<<(bit%64)) != 0
}

func (b *BitSet) Set(bit BitIndex) {
	b.check(bit)
	b.data[bit>>6] |= uint64(1) << (bit % 64)
}

func (b *BitSet) Clear(bit BitIndex) {
	b.check(bit)
	b.data[bit>>6] &^= uint64(1) << (bit % 64)
}

// Assign sets or clears bit depending on on.
func (b *BitSet) Assign(bit BitIndex, on bool) {
	if on {
		b.Set(bit)
		return
	}
	b.Clear(bit)
}

func (b *BitSet) ClearAll() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// Word32 returns bits 32*i..32*i+31, the layout of a memory mapped bit
// array.
func (b *BitSet) Word32(i uint32) uint32 {
	w := b.data[i>>1]
	if i&1 != 0 {
		return uint32(w >> 32)
	}
	return uint32(w)
}

// SetWord32 replaces bits 32*i..32*i+31.
func (b *BitSet) SetWord32(i uint32, v uint32) {
	w := &b.data[i>>1]
	if i&1 != 0 {
		*w = *w&0x0000_0000_ffff_ffff | uint64(v)<<32
		return
	}
	*w = *w&0xffff_ffff_0000_0000 | uint64(v)
}

// Words32 is the number of 32 bit words in the set.
func (b *BitSet) Words32() uint32 {
	return b.size >> 5
}
