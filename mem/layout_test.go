// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mem

import (
	"testing"

	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/platform"
)

func TestOverlaps(t *testing.T) {
	for _, tt := range []struct {
		start uint32
		size  uint32
		want  bool
	}{
		{0x00000000, 0x1000, false},
		{RuntimeStart - 0x1000, 0x1000, false},
		{RuntimeStart - 0x1000, 0x1001, true},
		{RuntimeStart + RuntimeSize - 1, 1, true},
		{RuntimeStart + RuntimeSize, 0x1000, true},
		{DMAStart + DMASize, 0x1000, false},
		{DMAStart - 0x1000, 0x1000, true},
		{DMAStart + 0x800, 0x10, true},
		{0xfffff000, 0x1000, false},
	} {
		if got := Overlaps(tt.start, tt.size); got != tt.want {
			t.Errorf("Overlaps(%#x, %#x) = %v, want %v", tt.start, tt.size, got, tt.want)
		}
	}
}

func TestTableBuffers(t *testing.T) {
	p, err := platform.Lookup("200D", 101)

	if err != nil {
		t.Fatal(err)
	}

	for _, b := range []struct {
		name  string
		start uint32
		size  uint32
	}{
		{"active", p.ActiveTable, p.Geometry.TableSize},
		{"inactive", p.InactiveTable, p.Geometry.TableSize},
		{"l2", p.L2Table, mmu.L2TableSize},
		{"scratch", p.ScratchPage, mmu.LargePageSize},
	} {
		if Overlaps(b.start, b.size) {
			t.Errorf("%s buffer overlaps runtime memory", b.name)
		}

		if b.start < TableStart || b.start+b.size > TableStart+TableSize {
			t.Errorf("%s buffer outside of table region", b.name)
		}
	}
}
