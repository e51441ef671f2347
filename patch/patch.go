// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package patch implements ROM content substitution by redirecting 64kB ROM
// pages, through translation table edits, to patched RAM copies.
package patch

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/usbarmory/mmu-remap/mmu"
)

var (
	ErrSize           = errors.New("invalid patch size")
	ErrSpansPages     = errors.New("patch spans two 64kB pages")
	ErrNotInitialized = errors.New("translation table not initialized")
	ErrScratchInUse   = errors.New("scratch page backs another ROM page")
	ErrNotIdentity    = errors.New("ROM section is not identity mapped")
	ErrUnexpected     = errors.New("unexpected L1 descriptor")
)

// RegionPatch represents a ROM content substitution.
type RegionPatch struct {
	// Addr is the virtual address of the start of patched content.
	Addr uint32
	// Orig, when not nil, receives a copy of the original content before
	// patching.
	Orig []byte
	// Content is the replacement content.
	Content []byte
	// Size is the length of the patched region.
	Size uint32
	// Description is a human readable description of the patch purpose.
	Description string
}

// Validate checks that the patch describes a non-empty region within a
// single 64kB page.
func (p *RegionPatch) Validate() error {
	if p.Size == 0 || int(p.Size) > len(p.Content) {
		return ErrSize
	}

	if p.Orig != nil && len(p.Orig) < int(p.Size) {
		return ErrSize
	}

	last := p.Addr + (p.Size - 1)

	if last < p.Addr || last&^(mmu.LargePageSize-1) != p.Page() {
		return ErrSpansPages
	}

	return nil
}

// Page returns the 64kB page containing the patch.
func (p *RegionPatch) Page() uint32 {
	return p.Addr &^ (mmu.LargePageSize - 1)
}

func (p *RegionPatch) String() string {
	return fmt.Sprintf("%#.8x+%d (%s)", p.Addr, p.Size, p.Description)
}

// Fingerprint returns a short BLAKE2b digest of a memory range, suitable to
// tell apart ROM content from its patched RAM copy.
func Fingerprint(m mmu.Memory, addr uint32, size int) string {
	buf := make([]byte, size)
	m.Read(addr, buf)

	sum := blake2b.Sum256(buf)

	return hex.EncodeToString(sum[:8])
}
