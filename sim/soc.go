// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package sim

import (
	"fmt"
	"sync"

	"github.com/usbarmory/mmu-remap/mmu"
)

// ROMSize is the size of the populated ROM image.
const ROMSize = mmu.SectionSize

// ROMString is a string found in the simulated ROM image.
const (
	ROMString     = "Dust Delete Data\x00"
	ROMStringAddr = ROMStart + 0x84e7
)

// EventKind represents a firmware service invocation.
type EventKind int

const (
	Clean EventKind = iota
	CleanMulticore
	TableBase
)

// Event represents a recorded firmware service invocation.
type Event struct {
	Kind EventKind
	Core int

	Addr uint32
	Size int

	TTBR0 uint32
	TTBR1 uint32
}

func (e Event) String() string {
	switch e.Kind {
	case Clean:
		return fmt.Sprintf("core%d clean %#.8x+%#x", e.Core, e.Addr, e.Size)
	case CleanMulticore:
		return fmt.Sprintf("core%d clean (multicore) %#.8x+%#x", e.Core, e.Addr, e.Size)
	default:
		return fmt.Sprintf("core%d ttbr0:%#.8x ttbr1:%#.8x", e.Core, e.TTBR0, e.TTBR1)
	}
}

// SoC represents a simulated multi-core SoC running the vendor firmware,
// with its translation table located at the start of ROM.
type SoC struct {
	sync.Mutex

	Memory   *Memory
	Geometry mmu.Geometry

	events []Event
	ttbr   map[int][2]uint32
}

// NewSoC returns a simulated SoC with a populated, read-only, ROM image.
func NewSoC(g mmu.Geometry) *SoC {
	s := &SoC{
		Memory:   NewMemory(),
		Geometry: g,
		ttbr:     make(map[int][2]uint32),
	}

	rom := make([]byte, ROMSize)

	for i := range rom {
		rom[i] = byte(i*7 + i>>8)
	}

	copy(rom, VendorTable(&g, ROMStart))
	copy(rom[ROMStringAddr-ROMStart:], ROMString)

	s.Memory.Load(ROMStart, rom)
	s.Memory.Protect(ROMStart, 1<<32-ROMStart)

	// the vendor firmware runs with its own table installed
	for core := 0; core < g.Cores; core++ {
		s.ttbr[core] = [2]uint32{g.CoreTable(ROMStart, core), ROMStart}
	}

	return s
}

func (s *SoC) record(e Event) {
	s.Lock()
	defer s.Unlock()

	if e.Kind == TableBase {
		s.ttbr[e.Core] = [2]uint32{e.TTBR0, e.TTBR1}
	}

	s.events = append(s.events, e)
}

// Events returns the recorded firmware service invocations.
func (s *SoC) Events() []Event {
	s.Lock()
	defer s.Unlock()

	return append([]Event(nil), s.events...)
}

// TableBase returns the translation table base registers of a core.
func (s *SoC) TableBase(core int) (ttbr0 uint32, ttbr1 uint32) {
	s.Lock()
	defer s.Unlock()

	r := s.ttbr[core]

	return r[0], r[1]
}

// Tables returns translation table access over the simulated memory.
func (s *SoC) Tables() *mmu.Tables {
	return &mmu.Tables{
		Memory:   s.Memory,
		Cache:    s.Core(0),
		Geometry: s.Geometry,
	}
}

// ReadVirtual reads memory as seen by a core through its installed
// translation tables.
func (s *SoC) ReadVirtual(core int, va uint32, buf []byte) (err error) {
	ttbr0, ttbr1 := s.TableBase(core)
	t := s.Tables()

	for i := range buf {
		m, err := t.Translate(ttbr0, ttbr1, va+uint32(i))

		if err != nil {
			return fmt.Errorf("core%d %#.8x, %w", core, va+uint32(i), err)
		}

		s.Memory.Read(m.Physical, buf[i:i+1])
	}

	return
}

// Core returns the firmware services as seen by a given core.
func (s *SoC) Core(id int) *Core {
	return &Core{
		soc: s,
		id:  id,
	}
}

// Core represents the firmware services available to a single core.
type Core struct {
	soc *SoC
	id  int
}

func (c *Core) CoreID() int {
	return c.id
}

func (c *Core) CleanDataCache(addr uint32, size int) {
	c.soc.record(Event{Kind: Clean, Core: c.id, Addr: addr, Size: size})
}

func (c *Core) CleanDataCacheMulticore(addr uint32, size int) {
	c.soc.record(Event{Kind: CleanMulticore, Core: c.id, Addr: addr, Size: size})
}

// SetTableBase updates the translation table base registers of a core,
// invalidating its translation cache.
func (c *Core) SetTableBase(ttbr0 uint32, ttbr1 uint32, core int) {
	c.soc.record(Event{Kind: TableBase, Core: core, TTBR0: ttbr0, TTBR1: ttbr1})
}
