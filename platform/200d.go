// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package platform

import (
	"github.com/usbarmory/mmu-remap/patch"
)

var earlGrey = []byte("Earl Grey, hot\x00")

// Canon200D is the EOS 200D, firmware 1.0.1.
var Canon200D = &Platform{
	Name:            "200D",
	FirmwareVersion: 101,

	Geometry: DIGIC8,

	VendorTable:  0xe0000000,
	RAMReference: 0x10000000,

	ActiveTable:   0x00d00000,
	InactiveTable: 0x00d08000,
	L2Table:       0x00d10000,
	ScratchPage:   0x00d20000,

	Patches: []*patch.RegionPatch{
		{
			// replace "Dust Delete Data" with "Earl Grey, hot", as a
			// low risk (non-code) test that remapping works
			Addr:        0xf00d84e7,
			Content:     earlGrey,
			Size:        uint32(len(earlGrey)),
			Description: "Tea",
		},
	},
}

func init() {
	Register(Canon200D)
}
