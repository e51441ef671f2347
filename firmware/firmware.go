// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

// Package firmware provides the vendor firmware services required to
// install translation tables, on the target ARMv7 cores.
package firmware

import (
	"fmt"

	"github.com/usbarmory/tamago/arm"
)

// defined in cpu_arm.s
func read_mpidr() uint32
func read_cpsr() uint32
func dcache_clean_range(start uint32, end uint32)
func set_ttbr(ttbr0 uint32, ttbr1 uint32)

// CPU represents the firmware services available to the invoking core.
type CPU struct{}

// CoreID returns the invoking core identifier (MPIDR.Aff0).
func (c *CPU) CoreID() int {
	return int(read_mpidr() & 0b11)
}

// Mode returns the processor mode name.
func (c *CPU) Mode() string {
	return arm.ModeName(int(read_cpsr() & 0x1f))
}

// CleanDataCache cleans data cache lines for a memory range, by MVA to the
// point of coherency.
func (c *CPU) CleanDataCache(addr uint32, size int) {
	if size <= 0 {
		return
	}

	dcache_clean_range(addr, addr+uint32(size))
}

// CleanDataCacheMulticore cleans data cache lines for a memory range on all
// cores, clean by MVA operations are broadcast within the inner shareable
// domain.
func (c *CPU) CleanDataCacheMulticore(addr uint32, size int) {
	c.CleanDataCache(addr, size)
}

// SetTableBase updates the translation table base registers, invalidating
// TLBs and branch predictors. Table base registers are banked per core,
// therefore core must match the invoking one.
func (c *CPU) SetTableBase(ttbr0 uint32, ttbr1 uint32, core int) {
	if id := c.CoreID(); id != core {
		panic(fmt.Sprintf("core%d cannot set core%d table base", id, core))
	}

	set_ttbr(ttbr0, ttbr1)
}
