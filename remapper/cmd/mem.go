// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/term"

	"github.com/usbarmory/mmu-remap/remapper/internal"
)

const maxBufferSize = 102400

func init() {
	Add(Cmd{
		Name:    "peek",
		Args:    2,
		Pattern: regexp.MustCompile(`^peek ([[:xdigit:]]+) (\d+)$`),
		Syntax:  "<hex offset> <size>",
		Help:    "memory display (use with caution)",
		Fn:      memReadCmd,
	})

	Add(Cmd{
		Name:    "poke",
		Args:    2,
		Pattern: regexp.MustCompile(`^poke ([[:xdigit:]]+) ([[:xdigit:]]+)$`),
		Syntax:  "<hex offset> <hex value>",
		Help:    "memory write   (use with caution)",
		Fn:      memWriteCmd,
	})
}

func memReadCmd(_ *term.Terminal, arg []string) (res string, err error) {
	if boot.Session == nil {
		return "", errors.New("remapping session not initialized")
	}

	addr, err := strconv.ParseUint(arg[0], 16, 32)

	if err != nil {
		return "", fmt.Errorf("invalid address, %v", err)
	}

	size, err := strconv.ParseUint(arg[1], 10, 32)

	if err != nil {
		return "", fmt.Errorf("invalid size, %v", err)
	}

	if (addr%4) != 0 || (size%4) != 0 {
		return "", fmt.Errorf("only 32-bit aligned accesses are supported")
	}

	if size > maxBufferSize {
		return "", fmt.Errorf("size argument must be <= %d", maxBufferSize)
	}

	if addr+size > 1<<32 {
		return "", fmt.Errorf("range exceeds address space")
	}

	buf := make([]byte, size)
	boot.Session.Engine.Tables.Memory.Read(uint32(addr), buf)

	return hex.Dump(buf), nil
}

func memWriteCmd(_ *term.Terminal, arg []string) (res string, err error) {
	if boot.Session == nil {
		return "", errors.New("remapping session not initialized")
	}

	addr, err := strconv.ParseUint(arg[0], 16, 32)

	if err != nil {
		return "", fmt.Errorf("invalid address, %v", err)
	}

	val, err := strconv.ParseUint(arg[1], 16, 32)

	if err != nil {
		return "", fmt.Errorf("invalid data, %v", err)
	}

	if addr%4 != 0 {
		return "", fmt.Errorf("only 32-bit aligned accesses are supported")
	}

	boot.Session.Engine.Tables.Memory.Write32(uint32(addr), uint32(val))

	return
}
