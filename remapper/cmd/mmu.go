// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/term"

	"github.com/usbarmory/mmu-remap/remapper/internal"
)

func init() {
	Add(Cmd{
		Name: "mmu",
		Help: "show memory mappings of all cores",
		Fn:   mmuCmd,
	})

	Add(Cmd{
		Name:    "mmu ",
		Args:    1,
		Pattern: regexp.MustCompile(`^mmu (\d+)$`),
		Syntax:  "<core>",
		Help:    "show memory mappings of a core",
		Fn:      mmuCmd,
	})
}

// tableBase returns the translation table base registers in use by a core.
func tableBase(core int) (ttbr0 uint32, ttbr1 uint32) {
	p := boot.Session.Platform
	base := p.VendorTable

	if boot.Session.CoreInstalled(core) {
		base = p.ActiveTable
	}

	return p.Geometry.CoreTable(base, core), base
}

func mmuCmd(_ *term.Terminal, arg []string) (res string, err error) {
	var buf bytes.Buffer

	if boot.Session == nil {
		return "", errors.New("remapping session not initialized")
	}

	first := 0
	last := boot.Session.Platform.Geometry.Cores - 1

	if len(arg) > 0 {
		core, err := strconv.Atoi(arg[0])

		if err != nil || core > last {
			return "", fmt.Errorf("invalid core, %s", arg[0])
		}

		first = core
		last = core
	}

	for core := first; core <= last; core++ {
		ttbr0, ttbr1 := tableBase(core)

		fmt.Fprintf(&buf, "core%d ttbr0:%#.8x ttbr1:%#.8x\n", core, ttbr0, ttbr1)

		for _, r := range boot.Session.Engine.Tables.Mappings(ttbr0, ttbr1) {
			fmt.Fprintf(&buf, "%s\n", r)
		}
	}

	return buf.String(), nil
}
