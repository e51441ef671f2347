// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package insn

import (
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	for _, tt := range []struct {
		name   string
		op     Op
		pc     uint32
		target uint32
		want   uint32
	}{
		{"ldr.w pc, [pc]", LDRW_PC_PC_T2, 0xe0008000, 0, 0xf000f8df},
		{"b .", B_ARM, 0x1000, 0x1000, 0xeafffffe},
		{"b +0x1000", B_ARM, 0x1000, 0x2000, 0xea0003fe},
		{"b (t2) .", B_T2, 0x1000, 0x1000, 0xe7fe},
		{"b (t2) +0", B_T2, 0x1000, 0x1004, 0xe000},
		{"b.w +0", B_T4, 0x1000, 0x1004, 0xb800f000},
		{"b.w .", B_T4, 0x1000, 0x1000, 0xbffef7ff},
		{"bl +0", BL_T1, 0x1000, 0x1004, 0xf800f000},
		{"bl .", BL_T1, 0x1000, 0x1000, 0xfffef7ff},
	} {
		got, err := Encode(tt.op, tt.pc, tt.target)

		if err != nil {
			t.Errorf("%s: %v", tt.name, err)
			continue
		}

		if got != tt.want {
			t.Errorf("%s: got %#.8x, want %#.8x", tt.name, got, tt.want)
		}
	}
}

func TestEncodeRange(t *testing.T) {
	for _, tt := range []struct {
		name   string
		op     Op
		pc     uint32
		target uint32
		err    error
	}{
		{"b (t2) max", B_T2, 0x1000, 0x1004 + 2046, nil},
		{"b (t2) min", B_T2, 0x1000, 0x1004 - 2048, nil},
		{"b (t2) over", B_T2, 0x1000, 0x1004 + 2048, ErrRange},
		{"b (t2) under", B_T2, 0x1000, 0x1004 - 2050, ErrRange},
		{"b.w max", B_T4, 0x01000000, 0x01000004 + (1 << 24) - 2, nil},
		{"b.w over", B_T4, 0x01000000, 0x01000004 + (1 << 24), ErrRange},
		{"bl under", BL_T1, 0x02000000, 0x02000004 - (1 << 24) - 2, ErrRange},
		{"b (arm) over", B_ARM, 0x04000000, 0x04000008 + (1 << 25), ErrRange},
		{"b (arm) min", B_ARM, 0x04000000, 0x04000008 - (1 << 25), nil},
	} {
		if _, err := Encode(tt.op, tt.pc, tt.target); !errors.Is(err, tt.err) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.err)
		}
	}

	if _, err := Encode(Op(42), 0, 0); err == nil {
		t.Errorf("unsupported instruction encoded")
	}
}
