// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sim

import (
	"encoding/binary"

	"github.com/usbarmory/mmu-remap/mmu"
)

// Section attributes used by the simulated vendor table.
const (
	// normal memory, outer and inner write-back write-allocate, shareable,
	// read/write
	RAMAttributes = 0b101<<mmu.TTE_TEX | 1<<mmu.TTE_B | 0b11<<mmu.TTE_AP | 1<<mmu.TTE_S
	// normal memory, non-cacheable, read/write
	UncachedAttributes = 0b001<<mmu.TTE_TEX | 0b11<<mmu.TTE_AP | 1<<mmu.TTE_S
	// normal memory, outer and inner write-through, privileged read-only
	ROMAttributes = 0b110<<mmu.TTE_TEX | 1<<mmu.TTE_C | 1<<mmu.TTE_APX | 0b01<<mmu.TTE_AP
	// device memory, privileged read/write, execute-never
	DeviceAttributes = 1<<mmu.TTE_B | 1<<mmu.TTE_XN | 0b01<<mmu.TTE_AP

	// small page equivalent of RAMAttributes
	smallRAMAttributes = 0b101<<6 | 1<<2 | 0b11<<4 | 1<<10
	smallPage          = 0b10

	// domain 1, preserved across table copies
	pageTableDomain = 1 << 5
)

// Simulated vendor address space.
const (
	RAMStart      = 0x00000000
	RAMEnd        = 0x40000000
	UncachedStart = 0x40000000
	UncachedEnd   = 0x80000000
	DeviceStart   = 0xc0000000
	DeviceEnd     = 0xe0000000
	ROMStart      = 0xe0000000

	// PerCoreData is the virtual page mapped to a different physical page
	// on each core.
	PerCoreData = 0x1000
)

// Section returns a section descriptor.
func Section(pa uint32, attr uint32) uint32 {
	return pa&0xfff00000 | attr | mmu.TTE_SECTION
}

// Supersection returns a supersection descriptor.
func Supersection(pa uint32, attr uint32) uint32 {
	return pa&0xff000000 | attr | mmu.TTE_SUPERSECTION
}

// PerCorePage returns the physical page backing PerCoreData for a given
// core.
func PerCorePage(core int) uint32 {
	return PerCoreData + uint32(core)*0x1000
}

// VendorTable returns a translation table region, laid out as the vendor
// firmware does, for a table located at base.
func VendorTable(g *mmu.Geometry, base uint32) []byte {
	buf := make([]byte, g.TableSize)

	put := func(off uint32, val uint32) {
		binary.LittleEndian.PutUint32(buf[off:], val)
	}

	// main L1 table
	for va := uint64(g.ReservedBoundary); va < 1<<32; va += mmu.SectionSize {
		addr := uint32(va)
		off := (addr >> 20) << 2

		switch {
		case addr < RAMEnd:
			put(off, Section(addr, RAMAttributes))
		case addr < UncachedEnd:
			put(off, Section(addr-UncachedStart, UncachedAttributes))
		case addr >= DeviceStart && addr < DeviceEnd:
			put(off, Section(addr, DeviceAttributes))
		case addr >= ROMStart:
			put(off, Supersection(addr, ROMAttributes))
		}
	}

	for core := 0; core < g.Cores; core++ {
		l2 := g.CoreL2Offset + uint32(core)*g.CoreL2Stride
		l1 := g.CoreTableOffset + uint32(core)*g.CoreTableStride

		// low L2 table, first page left unmapped to catch null pointers
		for pa := uint32(mmu.SmallPageSize); pa < mmu.SectionSize; pa += mmu.SmallPageSize {
			page := pa

			if pa == PerCoreData {
				page = PerCorePage(core)
			}

			put(l2+(pa>>12)<<2, page|smallRAMAttributes|smallPage)
		}

		// low L1 sub-table
		put(l1, (base+l2)|pageTableDomain|mmu.TTE_PAGE_TABLE)

		for addr := uint32(mmu.SectionSize); addr < g.ReservedBoundary; addr += mmu.SectionSize {
			put(l1+(addr>>20)<<2, Section(addr, RAMAttributes))
		}
	}

	return buf
}
