// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package patch

import (
	"errors"
	"testing"
)

type memory map[uint32]byte

func (m memory) Read(addr uint32, buf []byte) {
	for i := range buf {
		buf[i] = m[addr+uint32(i)]
	}
}

func (m memory) Write(addr uint32, buf []byte) {
	for i, b := range buf {
		m[addr+uint32(i)] = b
	}
}

func (m memory) Read32(addr uint32) uint32   { return 0 }
func (m memory) Write32(addr uint32, _ uint32) {}

func TestValidate(t *testing.T) {
	content := []byte("0123456789abcdef")

	for _, tt := range []struct {
		name string
		p    RegionPatch
		err  error
	}{
		{"valid", RegionPatch{Addr: 0xe0001000, Content: content, Size: 16}, nil},
		{"page end", RegionPatch{Addr: 0xe000fff0, Content: content, Size: 16}, nil},
		{"empty", RegionPatch{Addr: 0xe0001000, Content: content}, ErrSize},
		{"short content", RegionPatch{Addr: 0xe0001000, Content: content[:8], Size: 16}, ErrSize},
		{"short original", RegionPatch{Addr: 0xe0001000, Orig: make([]byte, 4), Content: content, Size: 16}, ErrSize},
		{"spans pages", RegionPatch{Addr: 0xe000fff1, Content: content, Size: 16}, ErrSpansPages},
		{"wraps", RegionPatch{Addr: 0xfffffff8, Content: content, Size: 16}, ErrSpansPages},
	} {
		if err := tt.p.Validate(); !errors.Is(err, tt.err) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.err)
		}
	}
}

func TestPage(t *testing.T) {
	p := &RegionPatch{Addr: 0xf00d84e7, Size: 15, Description: "Tea"}

	if p.Page() != 0xf00d0000 {
		t.Errorf("unexpected page %#x", p.Page())
	}

	if s := p.String(); s != "0xf00d84e7+15 (Tea)" {
		t.Errorf("unexpected description %q", s)
	}
}

func TestFingerprint(t *testing.T) {
	m := memory{}
	m.Write(0x1000, []byte("Dust Delete Data"))
	m.Write(0x2000, []byte("Earl Grey, hot\x00\x00"))

	a := Fingerprint(m, 0x1000, 16)
	b := Fingerprint(m, 0x2000, 16)

	if len(a) != 16 {
		t.Errorf("unexpected fingerprint length %d", len(a))
	}

	if a == b {
		t.Errorf("fingerprints of different content match")
	}

	if a != Fingerprint(m, 0x1000, 16) {
		t.Errorf("fingerprint is not deterministic")
	}
}
