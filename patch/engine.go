// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package patch

import (
	"fmt"
	"sync"

	"github.com/usbarmory/mmu-remap/mmu"
)

// Engine applies region patches to RAM copies of the vendor translation
// table.
//
// A single scratch page backs remapped ROM content, therefore all patches
// must fall within the same 64kB ROM page.
type Engine struct {
	sync.Mutex

	Tables *mmu.Tables

	// VendorTable is the location of the original vendor translation
	// table.
	VendorTable uint32
	// RAMReference is an address within a RAM section, its memory type is
	// given to remapped pages.
	RAMReference uint32
	// Scratch is the 64kB RAM page receiving the remapped ROM page copy.
	Scratch uint32

	initialized map[uint32]bool
	applied     map[*RegionPatch]bool

	// ROM page currently backed by Scratch
	backed bool
	page   uint32
	l2     uint32
}

// Copy copies the vendor translation table to dst, allowing patches to be
// applied to it.
func (e *Engine) Copy(dst uint32) (err error) {
	e.Lock()
	defer e.Unlock()

	if err = e.Tables.Copy(dst, e.VendorTable, e.Tables.TableSize); err != nil {
		return
	}

	if e.initialized == nil {
		e.initialized = make(map[uint32]bool)
	}

	e.initialized[dst] = true

	return
}

// Initialized returns whether the table located at l1 has been copied
// through Copy.
func (e *Engine) Initialized(l1 uint32) bool {
	e.Lock()
	defer e.Unlock()

	return e.initialized[l1]
}

// Flags returns the L2 large page flags for remapped content at addr,
// the ROM section access permissions are retained while memory type and
// shareability are taken from RAM.
func (e *Engine) Flags(addr uint32) (flags uint32, err error) {
	rom, err := e.Tables.LargePageFlags(addr, e.VendorTable)

	if err != nil {
		return 0, fmt.Errorf("invalid ROM section, %w", err)
	}

	ram, err := e.Tables.LargePageFlags(e.RAMReference, e.VendorTable)

	if err != nil {
		return 0, fmt.Errorf("invalid RAM section, %w", err)
	}

	return rom&^mmu.LPD_MEMTYPE_MASK | ram&mmu.LPD_MEMTYPE_MASK, nil
}

// Apply redirects the ROM page containing the patch, in the table located at
// l1, to a RAM copy described by the L2 table located at l2, and then
// overwrites the patched region within the copy.
//
// The table located at l1 is not installed, updating the table base
// registers is up to the caller.
func (e *Engine) Apply(p *RegionPatch, l1 uint32, l2 uint32) (err error) {
	e.Lock()
	defer e.Unlock()

	if !e.initialized[l1] {
		return ErrNotInitialized
	}

	if err = p.Validate(); err != nil {
		return
	}

	t := e.Tables
	page := p.Page()

	if e.backed && (e.page != page || e.l2 != l2) {
		return fmt.Errorf("%w (%#.8x)", ErrScratchInUse, e.page)
	}

	flags, err := e.Flags(page)

	if err != nil {
		return
	}

	split := false
	attached := false

	switch desc := t.Descriptor(page, l1); {
	case mmu.IsSupersection(desc):
		split = true
	case mmu.IsSection(desc):
	case mmu.IsPageTable(desc) && e.backed && desc&^(mmu.L2TableSize-1) == l2:
		attached = true
	default:
		return fmt.Errorf("%w (%#.8x)", ErrUnexpected, desc)
	}

	if !e.backed {
		if m, err := t.Translate(0, e.VendorTable, page); err != nil || m.Physical != page {
			return ErrNotIdentity
		}

		if err = t.BuildL2Table(page, l2, flags); err != nil {
			return fmt.Errorf("could not build L2 table, %w", err)
		}

		buf := make([]byte, mmu.LargePageSize)
		t.Memory.Read(page, buf)
		t.Memory.Write(e.Scratch, buf)

		if err = t.RedirectLargePage(page, e.Scratch, l2, flags); err != nil {
			return fmt.Errorf("could not redirect page, %w", err)
		}
	}

	// the L1 table is only modified once the L2 table is complete
	if split {
		if err = t.SplitSupersection(page, l1); err != nil {
			return fmt.Errorf("could not split supersection, %w", err)
		}
	}

	if !e.backed {
		e.backed = true
		e.page = page
		e.l2 = l2
	}

	if !attached {
		if err = t.AttachL2Table(page, l1, l2); err != nil {
			return fmt.Errorf("could not attach L2 table, %w", err)
		}
	}

	off := e.Scratch + p.Addr&(mmu.LargePageSize-1)

	if p.Orig != nil && !e.applied[p] {
		t.Memory.Read(off, p.Orig[:p.Size])
	}

	t.Memory.Write(off, p.Content[:p.Size])

	if e.applied == nil {
		e.applied = make(map[*RegionPatch]bool)
	}

	e.applied[p] = true

	t.Clean(e.Scratch, mmu.LargePageSize)
	t.Clean(page, mmu.LargePageSize)
	t.Clean(l2, mmu.L2TableSize)
	t.Clean(l1, int(t.TableSize))

	return
}

// Backing returns the physical address backing va when its page has been
// redirected to the scratch page in the table located at l1.
func (e *Engine) Backing(l1 uint32, va uint32) (pa uint32, ok bool) {
	e.Lock()
	defer e.Unlock()

	if !e.initialized[l1] || !e.backed {
		return
	}

	m, err := e.Tables.Translate(0, l1, va)

	if err != nil || m.Kind != mmu.LargePage || m.Physical&^(mmu.LargePageSize-1) != e.Scratch {
		return
	}

	return m.Physical, true
}

// Owns returns whether the physical range [addr, addr+size) overlaps the
// table copies, the L2 table or the scratch page in use by the engine.
func (e *Engine) Owns(addr uint32, size uint32) bool {
	e.Lock()
	defer e.Unlock()

	overlaps := func(start uint32, n uint32) bool {
		return uint64(addr) < uint64(start)+uint64(n) && uint64(addr)+uint64(size) > uint64(start)
	}

	if overlaps(e.Scratch, mmu.LargePageSize) {
		return true
	}

	if e.backed && overlaps(e.l2, mmu.L2TableSize) {
		return true
	}

	for l1 := range e.initialized {
		if overlaps(l1, e.Tables.TableSize) {
			return true
		}
	}

	return false
}
