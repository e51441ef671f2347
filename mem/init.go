// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package mem

import (
	"github.com/usbarmory/tamago/dma"
)

// TableRegion holds the translation table buffers and scratch page.
var TableRegion *dma.Region

// Init relocates the default DMA region and reserves the table buffers.
func Init() {
	dma.Init(DMAStart, DMASize)

	TableRegion, _ = dma.NewRegion(TableStart, TableSize, false)
	TableRegion.Reserve(TableSize, 0)
}
