// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package platform describes supported camera models: translation table
// geometry, memory layout and compiled-in ROM patches.
package platform

import (
	"fmt"

	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/patch"
)

// Platform represents a supported camera model and firmware version.
type Platform struct {
	Name            string
	FirmwareVersion int

	Geometry mmu.Geometry

	// VendorTable is the location of the vendor translation table.
	VendorTable uint32
	// RAMReference is an address within a cacheable RAM section.
	RAMReference uint32

	// RAM copies of the translation table
	ActiveTable   uint32
	InactiveTable uint32
	// L2Table is the L2 table describing the remapped ROM section.
	L2Table uint32
	// ScratchPage receives the remapped 64kB ROM page.
	ScratchPage uint32

	// Patches are applied in order at boot.
	Patches []*patch.RegionPatch
}

func (p *Platform) String() string {
	return fmt.Sprintf("%s fw:%d.%d.%d", p.Name, p.FirmwareVersion/100, p.FirmwareVersion/10%10, p.FirmwareVersion%10)
}

// DIGIC8 is the translation table geometry of dual-core DIGIC 7/8 models.
var DIGIC8 = mmu.Geometry{
	TableSize:        0x4900,
	TableAlign:       0x4000,
	L2Align:          0x400,
	ReservedBoundary: 0x02000000,
	CoreTableOffset:  0x4800,
	CoreTableStride:  0x80,
	CoreL2Offset:     0x4000,
	CoreL2Stride:     0x400,
	Cores:            2,
}

var platforms []*Platform

// Register adds a platform to the set of supported ones.
func Register(p *Platform) {
	platforms = append(platforms, p)
}

// Lookup returns the platform matching a camera model and firmware version,
// patch addresses are only valid for the firmware version they were
// written against.
func Lookup(name string, version int) (*Platform, error) {
	for _, p := range platforms {
		if p.Name == name && p.FirmwareVersion == version {
			return p, nil
		}
	}

	return nil, fmt.Errorf("unsupported platform %s fw:%d", name, version)
}
