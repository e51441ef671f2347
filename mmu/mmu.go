// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mmu edits ARMv7-A short-descriptor translation tables laid out by
// the vendor firmware.
//
// The vendor arrangement, relative to the 16kB aligned table base, is:
//   - 0x4000 bytes of L1 table for both cores, describing addresses from the
//     reserved boundary upwards
//   - 0x400 bytes of L2 table describing address range 0...1024kB, core0
//   - 0x400 bytes of L2 table describing address range 0...1024kB, core1
//   - 0x80 bytes of L1 table describing address range 0...32MB, core0
//   - 0x80 bytes of L1 table describing address range 0...32MB, core1
//
// Manipulation of the address range below the reserved boundary is not
// supported, it is core specific and RAM anyway.
package mmu

import (
	"errors"
)

const (
	SectionSize      = 0x00100000 // 1MB
	SupersectionSize = 0x01000000 // 16MB
	LargePageSize    = 0x00010000 // 64kB
	SmallPageSize    = 0x00001000 // 4kB

	// L2TableSize is the size of a coarse L2 table describing one section.
	L2TableSize = 0x400

	// LargePageReplicas is the number of consecutive L2 slots holding the
	// same large page descriptor.
	LargePageReplicas = 16

	// SectionsPerSupersection is the number of L1 slots holding the same
	// supersection descriptor.
	SectionsPerSupersection = 16
)

var (
	ErrMisaligned      = errors.New("misaligned table or address")
	ErrReserved        = errors.New("address within reserved region")
	ErrNotSection      = errors.New("not a section")
	ErrNotSupersection = errors.New("not a supersection")
	ErrFault           = errors.New("translation fault")
)

// Memory represents physical memory access.
type Memory interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, val uint32)
	Read(addr uint32, buf []byte)
	Write(addr uint32, buf []byte)
}

// Cache represents data cache maintenance, translation tables are read by a
// hardware table walker which does not snoop the data cache.
type Cache interface {
	// CleanDataCache cleans the invoking core data cache.
	CleanDataCache(addr uint32, size int)
	// CleanDataCacheMulticore cleans the data cache of all cores.
	CleanDataCacheMulticore(addr uint32, size int)
}

// Geometry describes the vendor translation table arrangement of a given
// hardware revision.
type Geometry struct {
	// TableSize is the size of the whole table region, including per-core
	// sub-tables.
	TableSize uint32
	// TableAlign is the required alignment of the main L1 table.
	TableAlign uint32
	// L2Align is the required alignment of L2 tables.
	L2Align uint32
	// ReservedBoundary is the first address described by the main L1
	// table, addresses below it are translated through per-core
	// sub-tables (TTBR0).
	ReservedBoundary uint32
	// CoreTableOffset is the offset of the core0 low L1 sub-table.
	CoreTableOffset uint32
	// CoreTableStride is the distance between per-core low L1 sub-tables.
	CoreTableStride uint32
	// CoreL2Offset is the offset of the core0 low L2 table.
	CoreL2Offset uint32
	// CoreL2Stride is the distance between per-core low L2 tables.
	CoreL2Stride uint32
	// Cores is the number of cores sharing the table.
	Cores int
}

// CoreTable returns the low L1 sub-table address, for a given core, of a
// table located at base. This is the value loaded in the core TTBR0.
func (g *Geometry) CoreTable(base uint32, core int) uint32 {
	return base + g.CoreTableOffset + uint32(core)*g.CoreTableStride
}

// CoreL2 returns the low L2 table address, for a given core, of a table
// located at base.
func (g *Geometry) CoreL2(base uint32, core int) uint32 {
	return base + g.CoreL2Offset + uint32(core)*g.CoreL2Stride
}

// Tables represents translation table manipulation over physical memory.
type Tables struct {
	Memory Memory
	Cache  Cache
	Geometry
}

func (t *Tables) checkL1(l1 uint32) error {
	if l1&(t.TableAlign-1) != 0 {
		return ErrMisaligned
	}

	return nil
}

func (t *Tables) checkL2(l2 uint32) error {
	if l2&(t.L2Align-1) != 0 {
		return ErrMisaligned
	}

	return nil
}

func (t *Tables) checkAddr(addr uint32) error {
	if addr < t.ReservedBoundary {
		return ErrReserved
	}

	return nil
}

// Clean cleans the data cache over a memory range, on the invoking core
// first and then across all cores.
func (t *Tables) Clean(addr uint32, size int) {
	t.Cache.CleanDataCache(addr, size)
	t.Cache.CleanDataCacheMulticore(addr, size)
}
