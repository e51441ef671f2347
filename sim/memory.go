// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package sim provides a simulated dual-core SoC, physical memory and
// vendor firmware services, to exercise translation table manipulation
// away from the target.
package sim

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const pageSize = 0x10000

type span struct {
	start uint32
	end   uint32
}

// Memory represents a sparse physical address space, unpopulated memory
// reads as zero.
type Memory struct {
	sync.Mutex

	pages    map[uint32][]byte
	readOnly []span
}

// NewMemory returns an empty physical address space.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[uint32][]byte),
	}
}

// Protect marks a physical range as read-only (e.g. ROM), any later write to
// it panics.
func (m *Memory) Protect(start uint32, size uint32) {
	m.Lock()
	defer m.Unlock()

	m.readOnly = append(m.readOnly, span{start, start + (size - 1)})
}

func (m *Memory) check(addr uint32, size int) {
	if size == 0 {
		return
	}

	end := addr + uint32(size-1)

	for _, s := range m.readOnly {
		if addr <= s.end && end >= s.start {
			panic(fmt.Sprintf("write to read-only memory at %#.8x", addr))
		}
	}
}

func (m *Memory) page(addr uint32, alloc bool) []byte {
	base := addr &^ (pageSize - 1)
	p, ok := m.pages[base]

	if !ok && alloc {
		p = make([]byte, pageSize)
		m.pages[base] = p
	}

	return p
}

func (m *Memory) access(addr uint32, buf []byte, write bool) {
	for off := 0; off < len(buf); {
		p := m.page(addr, write)
		i := int(addr & (pageSize - 1))
		n := pageSize - i

		if n > len(buf)-off {
			n = len(buf) - off
		}

		switch {
		case write:
			copy(p[i:i+n], buf[off:off+n])
		case p != nil:
			copy(buf[off:off+n], p[i:i+n])
		default:
			for j := off; j < off+n; j++ {
				buf[j] = 0
			}
		}

		off += n
		addr += uint32(n)
	}
}

// Load populates memory, ignoring read-only protection.
func (m *Memory) Load(addr uint32, buf []byte) {
	m.Lock()
	defer m.Unlock()

	m.access(addr, buf, true)
}

func (m *Memory) Read(addr uint32, buf []byte) {
	m.Lock()
	defer m.Unlock()

	m.access(addr, buf, false)
}

func (m *Memory) Write(addr uint32, buf []byte) {
	m.Lock()
	defer m.Unlock()

	m.check(addr, len(buf))
	m.access(addr, buf, true)
}

func (m *Memory) Read32(addr uint32) uint32 {
	buf := make([]byte, 4)
	m.Read(addr, buf)

	return binary.LittleEndian.Uint32(buf)
}

func (m *Memory) Write32(addr uint32, val uint32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, val)

	m.Write(addr, buf)
}
