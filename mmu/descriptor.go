// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmu

import (
	"github.com/usbarmory/tamago/bits"
)

// L1 descriptor types and attribute bit positions
// (p1326, B3.5.1 Short-descriptor translation table format descriptors,
// ARM Architecture Reference Manual ARMv7-A and ARMv7-R edition).
const (
	TTE_FAULT        = 0b00
	TTE_PAGE_TABLE   = 0b01
	TTE_SECTION      = 0b10
	TTE_SUPERSECTION = (1 << 18) | TTE_SECTION

	TTE_TYPE_MASK = (1 << 18) | 0b11

	TTE_B     = 2
	TTE_C     = 3
	TTE_XN    = 4
	TTE_AP    = 10
	TTE_TEX   = 12
	TTE_APX   = 15
	TTE_S     = 16
	TTE_NG    = 17
	TTE_SUPER = 18
	TTE_BASE  = 20
)

// L2 large page descriptor type and attribute bit positions.
const (
	LPD_LARGE_PAGE = 0b01

	LPD_B   = 2
	LPD_C   = 3
	LPD_AP  = 4
	LPD_APX = 9
	LPD_S   = 10
	LPD_NG  = 11
	LPD_TEX = 12
	LPD_XN  = 15

	// LPD_FLAGS_MASK covers the non-address bits of a large page
	// descriptor.
	LPD_FLAGS_MASK = 0xffff

	// LPD_MEMTYPE_MASK covers memory type (TEX, C, B) and shareability
	// bits of a large page descriptor.
	LPD_MEMTYPE_MASK = (0b111 << LPD_TEX) | (1 << LPD_S) | (1 << LPD_C) | (1 << LPD_B)
)

func field(val uint32, pos int, mask uint32) uint32 {
	return (val >> pos) & mask
}

// IsSection returns whether an L1 descriptor maps a 1MB section.
func IsSection(desc uint32) bool {
	return desc&TTE_TYPE_MASK == TTE_SECTION
}

// IsSupersection returns whether an L1 descriptor maps (one sixteenth of) a
// 16MB supersection.
func IsSupersection(desc uint32) bool {
	return desc&TTE_TYPE_MASK == TTE_SUPERSECTION
}

// IsPageTable returns whether an L1 descriptor references an L2 table.
func IsPageTable(desc uint32) bool {
	return desc&0b11 == TTE_PAGE_TABLE
}

// Descriptor returns the L1 descriptor covering addr in the main L1 table
// located at l1.
func (t *Tables) Descriptor(addr uint32, l1 uint32) uint32 {
	return t.Memory.Read32(l1 + (addr>>20)<<2)
}

// LargePage returns the (first replica of the) large page descriptor
// covering addr in the L2 table located at l2.
func (t *Tables) LargePage(addr uint32, l2 uint32) uint32 {
	return t.Memory.Read32(l2 + field(addr, 16, 0xf)*LargePageReplicas*4)
}

// LargePageFlags retrieves the attributes of the L1 section, or
// supersection, covering addr in L2 large page descriptor format.
func (t *Tables) LargePageFlags(addr uint32, l1 uint32) (flags uint32, err error) {
	if err = t.checkL1(l1); err != nil {
		return
	}

	addr &= ^uint32(SectionSize - 1)

	if err = t.checkAddr(addr); err != nil {
		return
	}

	val := t.Descriptor(addr, l1)

	if val&0b11 != TTE_SECTION {
		return 0, ErrNotSection
	}

	// memory type, cacheability
	bits.SetN(&flags, LPD_B, 0b11, field(val, TTE_B, 0b11))
	bits.SetN(&flags, LPD_TEX, 0b111, field(val, TTE_TEX, 0b111))

	// access permissions, shareability, non-global
	bits.SetN(&flags, LPD_AP, 0b11, field(val, TTE_AP, 0b11))
	bits.SetN(&flags, LPD_APX, 0b111, field(val, TTE_APX, 0b111))

	if bits.Get(&val, TTE_XN, 1) != 0 {
		bits.Set(&flags, LPD_XN)
	}

	return
}

// SplitSupersection rewrites, in place, the 16 L1 slots of the supersection
// covering addr into 16 sections over the same physical range.
//
// Nothing is written unless all 16 slots hold the same supersection
// descriptor.
func (t *Tables) SplitSupersection(addr uint32, l1 uint32) (err error) {
	if err = t.checkL1(l1); err != nil {
		return
	}

	addr &= ^uint32(SupersectionSize - 1)

	if err = t.checkAddr(addr); err != nil {
		return
	}

	entry := l1 + (addr>>24)<<6
	first := t.Memory.Read32(entry)

	for n := uint32(0); n < SectionsPerSupersection; n++ {
		val := t.Memory.Read32(entry + n*4)

		if !IsSupersection(val) || val != first {
			return ErrNotSupersection
		}
	}

	for n := uint32(0); n < SectionsPerSupersection; n++ {
		val := first

		bits.Clear(&val, TTE_SUPER)
		bits.SetN(&val, TTE_BASE, 0xf, n)

		t.Memory.Write32(entry+n*4, val)
	}

	return
}

// AttachL2Table rewrites the L1 section slot covering addr to reference the
// L2 table located at l2. The slot must hold a section, supersections must
// be split first.
func (t *Tables) AttachL2Table(addr uint32, l1 uint32, l2 uint32) (err error) {
	if err = t.checkL1(l1); err != nil {
		return
	}

	if err = t.checkL2(l2); err != nil {
		return
	}

	addr &= ^uint32(SectionSize - 1)

	if err = t.checkAddr(addr); err != nil {
		return
	}

	entry := l1 + (addr>>20)<<2

	if !IsSection(t.Memory.Read32(entry)) {
		return ErrNotSection
	}

	t.Memory.Write32(entry, l2|TTE_PAGE_TABLE)

	return
}

func (t *Tables) writeLargePage(l2 uint32, index uint32, desc uint32) {
	entry := l2 + index*LargePageReplicas*4

	for m := uint32(0); m < LargePageReplicas; m++ {
		t.Memory.Write32(entry+m*4, desc)
	}
}

// BuildL2Table fills the L2 table located at l2 with 16 large pages mapping
// the 1MB range containing addr onto itself, with the given large page
// flags.
func (t *Tables) BuildL2Table(addr uint32, l2 uint32, flags uint32) (err error) {
	if err = t.checkL2(l2); err != nil {
		return
	}

	addr &= ^uint32(SectionSize - 1)
	flags = (flags & LPD_FLAGS_MASK &^ 0b11) | LPD_LARGE_PAGE

	for n := uint32(0); n < SectionSize/LargePageSize; n++ {
		t.writeLargePage(l2, n, (addr+n*LargePageSize)|flags)
	}

	return
}

// RedirectLargePage points the large page covering addr, in the L2 table
// located at l2, to the physical 64kB page at replacement.
func (t *Tables) RedirectLargePage(addr uint32, replacement uint32, l2 uint32, flags uint32) (err error) {
	if err = t.checkL2(l2); err != nil {
		return
	}

	if addr&(LargePageSize-1) != 0 || replacement&(LargePageSize-1) != 0 {
		return ErrMisaligned
	}

	flags = (flags & LPD_FLAGS_MASK &^ 0b11) | LPD_LARGE_PAGE
	t.writeLargePage(l2, field(addr, 16, 0xf), replacement|flags)

	return
}
