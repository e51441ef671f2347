// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// Package insn encodes the few ARM and Thumb-2 instructions required to
// divert execution from patched code.
package insn

import (
	"errors"
	"fmt"
)

// Op represents an instruction encoding.
type Op int

const (
	// LDR.W PC, [PC, #0] (T2), loads PC from the following word, the
	// instruction must be word aligned.
	LDRW_PC_PC_T2 Op = iota
	// B <label> (A1)
	B_ARM
	// B <label> (T2), 16-bit
	B_T2
	// B.W <label> (T4), 32-bit
	B_T4
	// BL <label> (T1), 32-bit
	BL_T1
)

const ldrwPCPC = 0xf000f8df

var ErrRange = errors.New("branch target out of range")

func (op Op) String() string {
	switch op {
	case LDRW_PC_PC_T2:
		return "ldr.w pc, [pc]"
	case B_ARM:
		return "b (arm)"
	case B_T2:
		return "b (t2)"
	case B_T4:
		return "b.w (t4)"
	case BL_T1:
		return "bl (t1)"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

func inRange(off int64, bits uint) bool {
	limit := int64(1) << (bits - 1)
	return off >= -limit && off < limit
}

// thumb32 encodes the 32-bit Thumb-2 branch immediate, as stored in a
// little-endian word (first halfword in the low bits).
func thumb32(base uint32, off uint32) uint32 {
	word := base
	word |= ((off >> 1) & 0x7ff) << 16
	word |= (off >> 12) & 0x3ff

	s := off & 0x80000000

	if s != 0 {
		word |= 0x400
	}

	// J2 = NOT(I2 XOR S)
	if s == (off&0x400000)<<9 {
		word |= 0x8000000
	}

	// J1 = NOT(I1 XOR S)
	if s == (off&0x800000)<<8 {
		word |= 0x20000000
	}

	return word
}

// Encode returns the encoding of an instruction located at pc, for branch
// instructions target is the branch destination.
func Encode(op Op, pc uint32, target uint32) (word uint32, err error) {
	switch op {
	case LDRW_PC_PC_T2:
		return ldrwPCPC, nil
	case B_ARM:
		off := target - pc - 8

		if !inRange(int64(int32(off)), 26) {
			return 0, ErrRange
		}

		return 0xea000000 | (off>>2)&0x00ffffff, nil
	case B_T2:
		off := target - pc - 4

		if !inRange(int64(int32(off)), 12) {
			return 0, ErrRange
		}

		return 0xe000 | (off>>1)&0x7ff, nil
	case B_T4:
		off := target - pc - 4

		if !inRange(int64(int32(off)), 25) {
			return 0, ErrRange
		}

		return thumb32(0x9000f000, off), nil
	case BL_T1:
		off := target - pc - 4

		if !inRange(int64(int32(off)), 25) {
			return 0, ErrRange
		}

		return thumb32(0xd000f000, off), nil
	default:
		return 0, fmt.Errorf("unsupported instruction %v", op)
	}
}
