// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package hook_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/usbarmory/mmu-remap/hook"
	"github.com/usbarmory/mmu-remap/patch"
	"github.com/usbarmory/mmu-remap/platform"
	"github.com/usbarmory/mmu-remap/sim"
)

const (
	active  = 0x00d00000
	l2      = 0x00d10000
	scratch = 0x00d20000
	target  = 0x00c00000
)

func newInjector(t *testing.T) (*sim.SoC, *hook.Injector) {
	soc := sim.NewSoC(platform.DIGIC8)

	e := &patch.Engine{
		Tables:       soc.Tables(),
		VendorTable:  sim.ROMStart,
		RAMReference: 0x10000000,
		Scratch:      scratch,
	}

	if err := e.Copy(active); err != nil {
		t.Fatal(err)
	}

	tea := []byte("Earl Grey, hot\x00")

	p := &patch.RegionPatch{
		Addr:    sim.ROMStringAddr,
		Content: tea,
		Size:    uint32(len(tea)),
	}

	if err := e.Apply(p, active, l2); err != nil {
		t.Fatal(err)
	}

	return soc, &hook.Injector{Engine: e, Table: active}
}

func TestInstall(t *testing.T) {
	const addr = sim.ROMStart + 0x8000

	soc, i := newInjector(t)
	mem := soc.Memory

	orig := [2]uint32{mem.Read32(addr), mem.Read32(addr + 4)}

	// Thumb function address
	h, err := i.Install(addr, target|1, "test")

	if err != nil {
		t.Fatal(err)
	}

	if h.Addr != addr || h.Stub != target || h.Saved != orig {
		t.Errorf("unexpected hook %s", h)
	}

	for n, want := range []uint32{orig[0], orig[1], 0xf000f8df, (addr + 8) | 1} {
		if got := mem.Read32(target + uint32(n)*4); got != want {
			t.Errorf("stub word %d: got %#.8x, want %#.8x", n, got, want)
		}
	}

	ram := uint32(scratch + addr&0xffff)

	if got := mem.Read32(ram); got != 0xf000f8df {
		t.Errorf("unexpected diversion %#.8x", got)
	}

	if got := mem.Read32(ram + 4); got != (target+hook.StubSize)|1 {
		t.Errorf("unexpected diversion target %#.8x", got)
	}

	// ROM is unchanged
	if mem.Read32(addr) != orig[0] || mem.Read32(addr+4) != orig[1] {
		t.Errorf("ROM content modified")
	}

	g := soc.Geometry
	soc.Core(0).SetTableBase(g.CoreTable(active, 0), active, 0)

	buf := make([]byte, hook.Size)
	want := make([]byte, hook.Size)

	if err := soc.ReadVirtual(0, addr, buf); err != nil {
		t.Fatal(err)
	}

	mem.Read(ram, want)

	if !bytes.Equal(buf, want) {
		t.Errorf("core0 does not see the diversion")
	}
}

func TestInstallErrors(t *testing.T) {
	soc, i := newInjector(t)

	for _, tt := range []struct {
		name string
		addr uint32
		err  error
	}{
		{"misaligned", sim.ROMStart + 0x8002, hook.ErrMisaligned},
		{"spans pages", sim.ROMStart + 0xfffc, hook.ErrSpansPages},
		{"not redirected", sim.ROMStart + 0x20000, hook.ErrNotRedirected},
		{"vendor page", 0xf0000000, hook.ErrNotRedirected},
	} {
		if _, err := i.Install(tt.addr, target, tt.name); !errors.Is(err, tt.err) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.err)
		}
	}

	for _, tt := range []struct {
		name   string
		target uint32
	}{
		{"rom", sim.ROMStart + 0x10000},
		{"scratch", scratch + 0x100},
		{"table", active + 0x4800},
		{"l2 table", l2},
		{"unmapped", 0x90000000},
		{"remapped", 0x40c00000},
	} {
		before := make([]byte, hook.StubSize)
		soc.Memory.Read(tt.target, before)

		if _, err := i.Install(sim.ROMStart+0x8000, tt.target|1, tt.name); !errors.Is(err, hook.ErrTarget) {
			t.Errorf("%s: got %v, want %v", tt.name, err, hook.ErrTarget)
		}

		after := make([]byte, hook.StubSize)
		soc.Memory.Read(tt.target, after)

		if !bytes.Equal(before, after) {
			t.Errorf("%s: failed hook wrote the stub", tt.name)
		}
	}

	buf := make([]byte, hook.StubSize)
	soc.Memory.Read(target, buf)

	if !bytes.Equal(buf, make([]byte, hook.StubSize)) {
		t.Errorf("failed hook wrote the stub")
	}
}
