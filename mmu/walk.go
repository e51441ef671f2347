// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmu

import (
	"fmt"
)

// Kind represents the translation granule resolving a virtual address.
type Kind int

const (
	Fault Kind = iota
	Section
	Supersection
	LargePage
	SmallPage
)

func (k Kind) String() string {
	switch k {
	case Section:
		return "section"
	case Supersection:
		return "supersection"
	case LargePage:
		return "large page"
	case SmallPage:
		return "small page"
	default:
		return "fault"
	}
}

// Mapping represents the translation of a single virtual address.
type Mapping struct {
	Kind Kind

	Virtual  uint32
	Physical uint32
	// Size is the size of the translation granule.
	Size uint32

	// AP holds APX:AP[1:0]
	AP uint32
	// TEXCB holds TEX[2:0]:C:B
	TEXCB uint32
	// XN is the execute-never attribute
	XN bool
}

// Translate walks the translation tables, as the hardware table walker
// would, for a given virtual address. The core low sub-table (ttbr0) is used
// below the reserved boundary, the main L1 table (ttbr1) above it.
func (t *Tables) Translate(ttbr0 uint32, ttbr1 uint32, va uint32) (m Mapping, err error) {
	var entry uint32

	m.Virtual = va
	m.Size = SectionSize

	if va < t.ReservedBoundary {
		size := (t.ReservedBoundary >> 20) * 4
		entry = (ttbr0 &^ (size - 1)) | (va>>20)<<2
	} else {
		entry = (ttbr1 &^ (t.TableAlign - 1)) | (va>>20)<<2
	}

	desc := t.Memory.Read32(entry)

	switch desc & 0b11 {
	case TTE_PAGE_TABLE:
		l2 := desc & 0xfffffc00
		desc = t.Memory.Read32(l2 | field(va, 12, 0xff)<<2)
		m.AP = field(desc, 4, 0b11) | field(desc, 9, 1)<<2

		switch desc & 0b11 {
		case LPD_LARGE_PAGE:
			m.Kind = LargePage
			m.Size = LargePageSize
			m.Physical = desc&0xffff0000 | va&0xffff
			m.TEXCB = field(desc, 2, 0b11) | field(desc, 12, 0b111)<<2
			m.XN = desc&(1<<15) != 0
		case 0b10, 0b11:
			m.Kind = SmallPage
			m.Size = SmallPageSize
			m.Physical = desc&0xfffff000 | va&0xfff
			m.TEXCB = field(desc, 2, 0b11) | field(desc, 6, 0b111)<<2
			m.XN = desc&1 != 0
		default:
			m.Size = SmallPageSize
			return m, ErrFault
		}
	case TTE_SECTION:
		if IsSupersection(desc) {
			m.Kind = Supersection
			m.Size = SupersectionSize
			m.Physical = desc&0xff000000 | va&0x00ffffff
		} else {
			m.Kind = Section
			m.Physical = desc&0xfff00000 | va&0x000fffff
		}

		m.AP = field(desc, TTE_AP, 0b11) | field(desc, TTE_APX, 1)<<2
		m.TEXCB = field(desc, TTE_B, 0b11) | field(desc, TTE_TEX, 0b111)<<2
		m.XN = desc&(1<<TTE_XN) != 0
	default:
		return m, ErrFault
	}

	return
}

// Region represents a contiguous virtual address range with uniform
// translation offset and attributes.
type Region struct {
	Start    uint32
	End      uint32
	Physical uint32

	AP    uint32
	TEXCB uint32
	XN    bool
}

func (r Region) String() string {
	xn := "  "

	if r.XN {
		xn = "XN"
	}

	return fmt.Sprintf("%08X-%08X -> %08X-%08X (%+5X) %-4s %s %s",
		r.Start, r.End, r.Physical, r.Physical+(r.End-r.Start),
		int64(r.Physical)-int64(r.Start), MemoryType(r.TEXCB), Permission(r.AP), xn)
}

func (r *Region) extends(m Mapping) bool {
	return r.End+1 == m.Virtual &&
		r.Physical+(m.Virtual-r.Start) == m.Physical &&
		r.AP == m.AP && r.TEXCB == m.TEXCB && r.XN == m.XN
}

// Mappings walks the whole virtual address space and returns contiguous
// regions of identical translation offset and attributes.
func (t *Tables) Mappings(ttbr0 uint32, ttbr1 uint32) (regions []Region) {
	for va := uint64(0); va < 1<<32; {
		m, err := t.Translate(ttbr0, ttbr1, uint32(va))

		// granules are naturally aligned
		m.Virtual &= ^(m.Size - 1)
		m.Physical &= ^(m.Size - 1)
		va = uint64(m.Virtual) + uint64(m.Size)

		if err != nil {
			continue
		}

		if n := len(regions); n > 0 && regions[n-1].extends(m) {
			regions[n-1].End += m.Size
			continue
		}

		regions = append(regions, Region{
			Start:    m.Virtual,
			End:      m.Virtual + (m.Size - 1),
			Physical: m.Physical,
			AP:       m.AP,
			TEXCB:    m.TEXCB,
			XN:       m.XN,
		})
	}

	return
}

func cachePolicy(x uint32) string {
	switch x {
	case 0b00:
		return "NCACH"
	case 0b01:
		return "WB,WA"
	case 0b10:
		return "WT,WN"
	default:
		return "WB,WN"
	}
}

// MemoryType returns a short description of TEX:C:B memory attributes.
func MemoryType(texcb uint32) string {
	switch {
	case texcb&0b10000 != 0:
		return fmt.Sprintf("O:%s I:%s ", cachePolicy((texcb>>2)&3), cachePolicy(texcb&3))
	case texcb == 0b00001:
		return "Device          "
	case texcb == 0b00000:
		return "Strongly-ordered"
	default:
		return fmt.Sprintf("TEXCB:%05b      ", texcb)
	}
}

// Permission returns a short description of APX:AP access permissions.
func Permission(ap uint32) string {
	switch ap {
	case 0b000:
		return "NA  "
	case 0b001:
		return "P:RW"
	case 0b010:
		return "U:R "
	case 0b011:
		return "RW  "
	case 0b101:
		return "P:R "
	case 0b110, 0b111:
		return "R   "
	default:
		return fmt.Sprintf("%03b ", ap)
	}
}
