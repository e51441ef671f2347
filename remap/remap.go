// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package remap implements the boot time installation of patched
// translation tables on all cores.
//
// Every core invokes Init once, at early boot. Core 0 copies the vendor
// table to RAM, applies all patches and publishes completion, other cores
// wait for it before switching to the same table.
package remap

import (
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/patch"
	"github.com/usbarmory/mmu-remap/platform"
)

// Session states
const (
	Uninitialized = iota
	Building
	Installed
)

// DefaultPollInterval is the sleep between completion checks performed by
// secondary cores.
const DefaultPollInterval = 100 * time.Millisecond

var (
	ErrCore  = errors.New("invalid core")
	ErrState = errors.New("session already initialized")
)

// Firmware represents the vendor firmware services available to each core.
type Firmware interface {
	mmu.Cache

	// SetTableBase updates the translation table base registers of a
	// core, the translation cache is invalidated.
	SetTableBase(ttbr0 uint32, ttbr1 uint32, core int)
	// CoreID returns the invoking core identifier.
	CoreID() int
}

// Session represents the remapping state shared by all cores.
type Session struct {
	// Platform describes the memory layout and patches.
	Platform *platform.Platform
	// Engine applies patches to the RAM table copies.
	Engine *patch.Engine

	// PollInterval is the sleep between completion checks.
	PollInterval time.Duration
	// Halt is invoked on unrecoverable errors, it defaults to log.Fatalf.
	Halt func(core int, err error)
	// Log, when not nil, overrides the default logger for a given core.
	Log func(core int) *log.Logger

	state     atomic.Uint32
	installed []atomic.Bool
}

// NewSession returns a remapping session for a given platform.
func NewSession(p *platform.Platform, mem mmu.Memory, cache mmu.Cache) *Session {
	tables := &mmu.Tables{
		Memory:   mem,
		Cache:    cache,
		Geometry: p.Geometry,
	}

	return &Session{
		Platform: p,
		Engine: &patch.Engine{
			Tables:       tables,
			VendorTable:  p.VendorTable,
			RAMReference: p.RAMReference,
			Scratch:      p.ScratchPage,
		},
		PollInterval: DefaultPollInterval,
		installed:    make([]atomic.Bool, p.Geometry.Cores),
	}
}

// State returns the session state.
func (s *Session) State() uint32 {
	return s.state.Load()
}

// StateName returns the session state description.
func (s *Session) StateName() string {
	switch s.State() {
	case Uninitialized:
		return "uninitialized"
	case Building:
		return "building"
	case Installed:
		return "installed"
	default:
		return "unknown"
	}
}

// CoreInstalled returns whether a core switched to the remapped table.
func (s *Session) CoreInstalled(core int) bool {
	if core < 0 || core >= len(s.installed) {
		return false
	}

	return s.installed[core].Load()
}

// Active returns the location of the installed translation table.
func (s *Session) Active() uint32 {
	return s.Platform.ActiveTable
}

func (s *Session) logger(core int) *log.Logger {
	if s.Log != nil {
		return s.Log(core)
	}

	return log.New(log.Writer(), "", log.Flags())
}

func (s *Session) halt(core int, err error) error {
	if s.Halt != nil {
		s.Halt(core, err)
	} else {
		log.Fatalf("core%d halted, %v", core, err)
	}

	return err
}

// build copies the vendor table to both RAM tables and applies all patches
// to them.
func (s *Session) build(l *log.Logger) (err error) {
	p := s.Platform

	for _, dst := range []uint32{p.ActiveTable, p.InactiveTable} {
		if err = s.Engine.Copy(dst); err != nil {
			return fmt.Errorf("could not copy table to %#.8x, %w", dst, err)
		}

		l.Printf("remap copied table %#.8x to %#.8x size:%#x", p.VendorTable, dst, p.Geometry.TableSize)
	}

	for _, dst := range []uint32{p.ActiveTable, p.InactiveTable} {
		for _, rp := range p.Patches {
			if err = s.Engine.Apply(rp, dst, p.L2Table); err != nil {
				return fmt.Errorf("could not apply patch %s to %#.8x, %w", rp, dst, err)
			}
		}
	}

	for _, rp := range p.Patches {
		page := rp.Page()
		l.Printf("remap patched %s rom:%s ram:%s", rp,
			patch.Fingerprint(s.Engine.Tables.Memory, page, mmu.LargePageSize),
			patch.Fingerprint(s.Engine.Tables.Memory, p.ScratchPage, mmu.LargePageSize))
	}

	return
}

func (s *Session) install(fw Firmware, core int, l *log.Logger) {
	g := &s.Platform.Geometry
	active := s.Platform.ActiveTable
	ttbr0 := g.CoreTable(active, core)

	fw.SetTableBase(ttbr0, active, core)
	s.installed[core].Store(true)

	l.Printf("remap core%d installed ttbr0:%#.8x ttbr1:%#.8x", core, ttbr0, active)
}

// Init builds, on core 0, and installs, on all cores, the patched
// translation tables. It must be invoked once by every core.
//
// Unrecoverable errors invoke Halt, when it returns the error is passed to
// the caller, tables are never installed after an error.
func (s *Session) Init(fw Firmware) (err error) {
	core := fw.CoreID()
	l := s.logger(core)

	if core < 0 || core >= len(s.installed) {
		return s.halt(core, fmt.Errorf("%w %d", ErrCore, core))
	}

	if core != 0 {
		for s.state.Load() != Installed {
			time.Sleep(s.PollInterval)
		}

		s.install(fw, core, l)

		return
	}

	if !s.state.CompareAndSwap(Uninitialized, Building) {
		return s.halt(core, ErrState)
	}

	l.Printf("remap core%d building tables for %s", core, s.Platform)

	if err = s.build(l); err != nil {
		return s.halt(core, err)
	}

	// all table edits have been cleaned from data caches, the tables can
	// now be walked by any core
	s.state.Store(Installed)

	s.install(fw, core, l)

	return
}
