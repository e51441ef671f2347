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

	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/patch"
	"github.com/usbarmory/mmu-remap/remapper/internal"
)

func init() {
	Add(Cmd{
		Name: "remap",
		Help: "show ROM remapping status",
		Fn:   remapCmd,
	})

	Add(Cmd{
		Name: "patches",
		Help: "show ROM patches",
		Fn:   patchesCmd,
	})

	Add(Cmd{
		Name:    "hook",
		Args:    2,
		Pattern: regexp.MustCompile(`^hook ([[:xdigit:]]+) ([[:xdigit:]]+)$`),
		Syntax:  "<hex addr> <hex target>",
		Help:    "divert remapped code (use with caution)",
		Fn:      hookCmd,
	})
}

func remapCmd(_ *term.Terminal, _ []string) (res string, err error) {
	var buf bytes.Buffer

	s := boot.Session

	if s == nil {
		return "", errors.New("remapping session not initialized")
	}

	p := s.Platform

	fmt.Fprintf(&buf, "platform:%s state:%s\n", p, s.StateName())
	fmt.Fprintf(&buf, "vendor:%#.8x active:%#.8x inactive:%#.8x l2:%#.8x scratch:%#.8x\n",
		p.VendorTable, p.ActiveTable, p.InactiveTable, p.L2Table, p.ScratchPage)

	for core := 0; core < p.Geometry.Cores; core++ {
		ttbr0, ttbr1 := tableBase(core)
		fmt.Fprintf(&buf, "core%d installed:%v ttbr0:%#.8x ttbr1:%#.8x\n", core, s.CoreInstalled(core), ttbr0, ttbr1)
	}

	return buf.String(), nil
}

func patchesCmd(_ *term.Terminal, _ []string) (res string, err error) {
	var buf bytes.Buffer

	s := boot.Session

	if s == nil {
		return "", errors.New("remapping session not initialized")
	}

	mem := s.Engine.Tables.Memory

	for _, rp := range s.Platform.Patches {
		pa, ok := s.Engine.Backing(s.Platform.ActiveTable, rp.Addr)

		if !ok {
			fmt.Fprintf(&buf, "%s inactive\n", rp)
			continue
		}

		fmt.Fprintf(&buf, "%s ram:%#.8x rom:%s copy:%s\n", rp, pa,
			patch.Fingerprint(mem, rp.Page(), mmu.LargePageSize),
			patch.Fingerprint(mem, pa&^(mmu.LargePageSize-1), mmu.LargePageSize))
	}

	return buf.String(), nil
}

func hookCmd(_ *term.Terminal, arg []string) (res string, err error) {
	if boot.Hooks == nil {
		return "", errors.New("remapping session not initialized")
	}

	addr, err := strconv.ParseUint(arg[0], 16, 32)

	if err != nil {
		return "", fmt.Errorf("invalid address, %v", err)
	}

	target, err := strconv.ParseUint(arg[1], 16, 32)

	if err != nil {
		return "", fmt.Errorf("invalid target, %v", err)
	}

	h, err := boot.Hooks.Install(uint32(addr), uint32(target), "console")

	if err != nil {
		return
	}

	return h.String(), nil
}
