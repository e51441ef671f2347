// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package hook diverts execution of remapped Thumb-2 ROM code to functions
// in RAM.
//
// The hooked code is overwritten with:
//
//	ldr.w pc, [pc]
//	.word stub+16|1
//
// while the hook function must reserve 4 words at its start, which are
// filled with:
//
//	<original instruction words>
//	ldr.w pc, [pc]
//	.word patchAddr+8|1
//
// The hook code follows, it must preserve all registers and state it is not
// explicitly allowed to alter. Jumping to the stub start executes the
// overwritten instructions and returns to the hooked code.
//
// The two overwritten words must hold a whole number of instructions, none
// of which may depend on PC.
package hook

import (
	"errors"
	"fmt"
	"log"

	"github.com/usbarmory/mmu-remap/insn"
	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/patch"
)

const (
	// Size is the size of the overwritten region.
	Size = 8
	// StubSize is the size reserved at the start of the hook function.
	StubSize = 16
)

var (
	ErrMisaligned    = errors.New("hook address must be 32-bit aligned")
	ErrSpansPages    = errors.New("hook spans two 64kB pages")
	ErrNotRedirected = errors.New("hook address is not remapped to RAM")
	ErrTarget        = errors.New("hook target is not writable RAM")
)

// Hook represents an installed execution hook.
type Hook struct {
	// Addr is the hooked virtual address.
	Addr uint32
	// Stub is the address of the hook function stub.
	Stub uint32
	// Saved holds the overwritten instruction words.
	Saved [2]uint32
	// Description is a human readable description of the hook purpose.
	Description string
}

func (h *Hook) String() string {
	return fmt.Sprintf("%#.8x -> %#.8x saved:%.8x %.8x (%s)", h.Addr, h.Stub, h.Saved[0], h.Saved[1], h.Description)
}

// Injector installs hooks in pages already redirected to RAM by the patch
// engine, in the translation table located at Table.
type Injector struct {
	Engine *patch.Engine
	Table  uint32
}

func (i *Injector) checkTarget(stub uint32) error {
	t := i.Engine.Tables

	if uint64(stub)+StubSize > 1<<32 || i.Engine.Owns(stub, StubSize) {
		return fmt.Errorf("%w (%#.8x)", ErrTarget, stub)
	}

	ttbr0 := t.CoreTable(i.Table, 0)

	for _, addr := range []uint32{stub, stub + StubSize - 1} {
		m, err := t.Translate(ttbr0, i.Table, addr)

		if err != nil {
			return fmt.Errorf("%w (%#.8x), %v", ErrTarget, addr, err)
		}

		// identity mapped, APX clear, privileged access allowed
		if m.Physical != addr || m.AP&0b100 != 0 || m.AP&0b11 == 0 {
			return fmt.Errorf("%w (%#.8x)", ErrTarget, addr)
		}
	}

	return nil
}

// Install diverts execution at patchAddr to the hook function at target,
// patchAddr must fall within a ROM page already remapped to RAM.
//
// The hook function must be identity mapped, privileged writable, memory
// outside of the tables and scratch page in use by the patch engine.
func (i *Injector) Install(patchAddr uint32, target uint32, description string) (h *Hook, err error) {
	if patchAddr&3 != 0 {
		return nil, ErrMisaligned
	}

	if (patchAddr+Size-1)&^(mmu.LargePageSize-1) != patchAddr&^(mmu.LargePageSize-1) {
		return nil, ErrSpansPages
	}

	ram, ok := i.Engine.Backing(i.Table, patchAddr)

	if !ok {
		return nil, ErrNotRedirected
	}

	t := i.Engine.Tables
	stub := target &^ 3

	if err = i.checkTarget(stub); err != nil {
		return nil, err
	}

	ldr, err := insn.Encode(insn.LDRW_PC_PC_T2, patchAddr, 0)

	if err != nil {
		return
	}

	h = &Hook{
		Addr:        patchAddr,
		Stub:        stub,
		Description: description,
	}

	h.Saved[0] = t.Memory.Read32(ram)
	h.Saved[1] = t.Memory.Read32(ram + 4)

	t.Memory.Write32(stub, h.Saved[0])
	t.Memory.Write32(stub+4, h.Saved[1])
	t.Memory.Write32(stub+8, ldr)
	t.Memory.Write32(stub+12, (patchAddr+Size)|1)

	t.Clean(stub, StubSize)

	t.Memory.Write32(ram, ldr)
	t.Memory.Write32(ram+4, (stub+StubSize)|1)

	t.Clean(ram, Size)

	log.Printf("hook installed %s", h)

	return
}
