// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fogleman/gg"

	"github.com/usbarmory/mmu-remap/mmu"
)

const (
	mapWidth   = 1024
	rowHeight  = 48
	labelWidth = 64
	margin     = 8
)

// regionColor returns the fill color of a region by memory type and
// access permissions.
func regionColor(r mmu.Region) (red, green, blue float64) {
	memType := mmu.MemoryType(r.TEXCB)

	switch {
	case strings.HasPrefix(memType, "Strongly"), strings.HasPrefix(memType, "Device"):
		return 0.85, 0.25, 0.25
	case r.AP&0b100 != 0:
		// read-only
		return 0.25, 0.45, 0.85
	case strings.Contains(memType, "WB"), strings.Contains(memType, "WT"):
		return 0.25, 0.75, 0.35
	default:
		return 0.90, 0.80, 0.30
	}
}

func scale(addr uint64) float64 {
	return labelWidth + float64(addr)*mapWidth/(1<<32)
}

// render draws the address map of each core, one row per core, as a PNG
// image.
func render(w io.Writer, cores [][]mmu.Region) error {
	height := margin + len(cores)*(rowHeight+margin)
	dc := gg.NewContext(labelWidth+mapWidth+margin, height)

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, regions := range cores {
		y := float64(margin + i*(rowHeight+margin))

		dc.SetRGB(0.85, 0.85, 0.85)
		dc.DrawRectangle(labelWidth, y, mapWidth, rowHeight)
		dc.Fill()

		for _, r := range regions {
			x0 := scale(uint64(r.Start))
			x1 := scale(uint64(r.End) + 1)

			// keep small regions visible
			if x1-x0 < 1 {
				x1 = x0 + 1
			}

			dc.SetRGB(regionColor(r))
			dc.DrawRectangle(x0, y, x1-x0, rowHeight)
			dc.Fill()
		}

		dc.SetRGB(0, 0, 0)
		dc.DrawString(fmt.Sprintf("CPU%d", i), margin, y+rowHeight/2)
	}

	return dc.EncodePNG(w)
}
