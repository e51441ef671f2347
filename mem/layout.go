// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package mem describes the memory used by the remapper runtime, carved out
// of RAM left unused by the vendor firmware.
package mem

const (
	// Remapper runtime
	RuntimeStart = 0x00e00000
	RuntimeSize  = 0x00f00000 // 15MB

	// Remapper DMA
	DMAStart = 0x01d00000
	DMASize  = 0x00100000 // 1MB

	// Translation table buffers and scratch page
	TableStart = 0x00d00000
	TableSize  = 0x00100000 // 1MB
)

// Overlaps returns whether a memory range overlaps the remapper runtime or
// its DMA region.
func Overlaps(start uint32, size uint32) bool {
	end := uint64(start) + uint64(size)

	for _, r := range [][2]uint64{
		{RuntimeStart, RuntimeStart + RuntimeSize},
		{DMAStart, DMAStart + DMASize},
	} {
		if uint64(start) < r[1] && end > r[0] {
			return true
		}
	}

	return false
}
