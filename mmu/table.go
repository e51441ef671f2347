// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package mmu

import (
	"errors"
)

var ErrTableSize = errors.New("table size does not cover per-core sub-tables")

// Copy copies the vendor table region located at src to dst, fixing up the
// per-core sub-table entries which hold absolute addresses of the low L2
// tables. The data cache is cleaned over the copy on all cores.
//
// Nothing is written if dst is not aligned to the table boundary.
func (t *Tables) Copy(dst uint32, src uint32, size uint32) (err error) {
	if err = t.checkL1(dst); err != nil {
		return
	}

	if last := t.CoreTableOffset + uint32(t.Cores)*t.CoreTableStride; size < last {
		return ErrTableSize
	}

	buf := make([]byte, size)
	t.Memory.Read(src, buf)
	t.Memory.Write(dst, buf)

	for core := 0; core < t.Cores; core++ {
		entry := t.CoreTable(dst, core)
		val := t.Memory.Read32(entry)

		t.Memory.Write32(entry, t.CoreL2(dst, core)|(val&(L2TableSize-1)))
	}

	t.Clean(dst, int(size))

	return
}
