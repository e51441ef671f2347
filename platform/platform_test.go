// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package platform

import (
	"testing"

	"github.com/usbarmory/mmu-remap/mmu"
)

func TestLookup(t *testing.T) {
	p, err := Lookup("200D", 101)

	if err != nil {
		t.Fatal(err)
	}

	if p != Canon200D {
		t.Errorf("unexpected platform %s", p)
	}

	if s := p.String(); s != "200D fw:1.0.1" {
		t.Errorf("unexpected description %q", s)
	}

	for _, tt := range []struct {
		name    string
		version int
	}{
		{"200D", 102},
		{"800D", 101},
	} {
		if _, err := Lookup(tt.name, tt.version); err == nil {
			t.Errorf("%s fw:%d found", tt.name, tt.version)
		}
	}
}

func TestLayout(t *testing.T) {
	for _, p := range platforms {
		g := p.Geometry

		if p.ActiveTable%g.TableAlign != 0 || p.InactiveTable%g.TableAlign != 0 {
			t.Errorf("%s: misaligned table buffers", p)
		}

		if p.L2Table%g.L2Align != 0 || p.ScratchPage%mmu.LargePageSize != 0 {
			t.Errorf("%s: misaligned L2 table or scratch page", p)
		}

		if p.RAMReference < g.ReservedBoundary {
			t.Errorf("%s: RAM reference within reserved region", p)
		}

		page := uint32(0)

		for i, rp := range p.Patches {
			if err := rp.Validate(); err != nil {
				t.Errorf("%s: patch %s, %v", p, rp, err)
			}

			// a single scratch page backs all patches
			if i > 0 && rp.Page() != page {
				t.Errorf("%s: patch %s outside of %#x", p, rp, page)
			}

			page = rp.Page()
		}
	}
}
