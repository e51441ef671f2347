// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

// Command remapper runs, on core 0, the ROM remapping bring-up and a serial
// console.
//
// The TamaGo runtime only executes on core 0. Other cores keep the vendor
// tables until the vendor firmware, once they are started, hands them over
// to boot.Secondary.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strconv"
	_ "unsafe"

	"github.com/usbarmory/mmu-remap/firmware"
	"github.com/usbarmory/mmu-remap/mem"
	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/platform"
	"github.com/usbarmory/mmu-remap/remapper/cmd"
	"github.com/usbarmory/mmu-remap/remapper/internal"
)

// Camera model and firmware version, set at build time with:
//
//	-ldflags "-X main.Model=200D -X main.Firmware=101"
var (
	Model    = "200D"
	Firmware = "101"
)

//go:linkname ramStart runtime.ramStart
var ramStart uint32 = mem.RuntimeStart

//go:linkname ramSize runtime.ramSize
var ramSize uint32 = mem.RuntimeSize

func init() {
	log.SetFlags(log.Ltime)
	log.SetOutput(os.Stdout)

	mem.Init()

	version, err := strconv.Atoi(Firmware)

	if err != nil {
		log.Fatalf("invalid firmware version %s, %v", Firmware, err)
	}

	p, err := platform.Lookup(Model, version)

	if err != nil {
		log.Fatal(err)
	}

	for _, b := range [][2]uint32{
		{p.ActiveTable, p.Geometry.TableSize},
		{p.InactiveTable, p.Geometry.TableSize},
		{p.L2Table, mmu.L2TableSize},
		{p.ScratchPage, mmu.LargePageSize},
	} {
		if mem.Overlaps(b[0], b[1]) {
			log.Fatalf("invalid %s layout, %#.8x overlaps runtime memory", p, b[0])
		}
	}

	cpu := &firmware.CPU{}
	boot.Init(p, &firmware.Memory{}, cpu)

	cmd.Banner = fmt.Sprintf("%s/%s (%s) • ROM remapper %s", runtime.GOOS, runtime.GOARCH, runtime.Version(), p)
}

func main() {
	cpu := &firmware.CPU{}

	log.Printf("%s/%s (%s) • ROM remapper core%d (%s mode)", runtime.GOOS, runtime.GOARCH, runtime.Version(), cpu.CoreID(), cpu.Mode())

	if err := boot.Start(cpu); err != nil {
		log.Fatalf("could not remap ROM, %v", err)
	}

	cmd.SerialConsole(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout})

	log.Printf("remapper says goodbye")
}
