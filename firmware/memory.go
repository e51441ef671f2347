// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package firmware

import (
	"sync/atomic"
	"unsafe"

	"github.com/usbarmory/tamago/dma"
)

// Memory provides access to physical memory, translation tables are assumed
// to be identity mapped.
type Memory struct{}

func (m *Memory) access(addr uint32, buf []byte, write bool) {
	mem, err := dma.NewRegion(uint(addr), len(buf), true)

	if err != nil {
		panic("could not allocate memory copy DMA")
	}

	start, b := mem.Reserve(len(buf), 0)
	defer mem.Release(start)

	if write {
		copy(b, buf)
	} else {
		copy(buf, b)
	}
}

func (m *Memory) Read(addr uint32, buf []byte) {
	if len(buf) > 0 {
		m.access(addr, buf, false)
	}
}

func (m *Memory) Write(addr uint32, buf []byte) {
	if len(buf) > 0 {
		m.access(addr, buf, true)
	}
}

func (m *Memory) Read32(addr uint32) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

func (m *Memory) Write32(addr uint32, val uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), val)
}
