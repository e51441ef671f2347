// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

// mmudump decodes the translation tables found in a vendor ROM dump and
// lists the virtual to physical mappings seen by each core.
//
//	usage: mmudump [-base e0000000] [-table e0000000] [-model 200D] [-fw 101] [-png map.png] rom.bin
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spf13/afero"

	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/patch"
	"github.com/usbarmory/mmu-remap/platform"
	"github.com/usbarmory/mmu-remap/sim"
)

const usage = "usage: mmudump [flags] <rom>"

func main() {
	log.SetFlags(0)

	if err := run(afero.NewOsFs(), os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func parseAddr(s string) (uint32, error) {
	addr, err := strconv.ParseUint(s, 16, 32)

	if err != nil {
		return 0, fmt.Errorf("invalid address %s, %v", s, err)
	}

	return uint32(addr), nil
}

func run(fs afero.Fs, args []string, out io.Writer) (err error) {
	flags := flag.NewFlagSet("mmudump", flag.ContinueOnError)
	flags.SetOutput(out)

	baseFlag := flags.String("base", "e0000000", "ROM load address (hex)")
	tableFlag := flags.String("table", "", "vendor translation table address (hex, defaults to ROM load address)")
	model := flags.String("model", "200D", "camera model")
	fw := flags.Int("fw", 101, "firmware version")
	png := flags.String("png", "", "address map output (PNG)")

	if err = flags.Parse(args); err != nil {
		return
	}

	if flags.NArg() != 1 {
		return errors.New(usage)
	}

	p, err := platform.Lookup(*model, *fw)

	if err != nil {
		return
	}

	base, err := parseAddr(*baseFlag)

	if err != nil {
		return
	}

	table := base

	if *tableFlag != "" {
		if table, err = parseAddr(*tableFlag); err != nil {
			return
		}
	}

	rom, err := afero.ReadFile(fs, flags.Arg(0))

	if err != nil {
		return fmt.Errorf("could not read ROM, %v", err)
	}

	end := uint64(base) + uint64(len(rom))

	if len(rom) == 0 || end > 1<<32 {
		return fmt.Errorf("invalid ROM size %#x at %#.8x", len(rom), base)
	}

	if table < base || uint64(table)+uint64(p.Geometry.TableSize) > end {
		return fmt.Errorf("translation table %#.8x outside of ROM", table)
	}

	mem := sim.NewMemory()
	mem.Load(base, rom)

	t := &mmu.Tables{
		Memory:   mem,
		Geometry: p.Geometry,
	}

	fmt.Fprintf(out, "ROM %s base:%#.8x size:%#x blake2b:%s\n\n", flags.Arg(0), base, len(rom), patch.Fingerprint(mem, base, len(rom)))

	var cores [][]mmu.Region

	for core := 0; core < p.Geometry.Cores; core++ {
		ttbr0 := p.Geometry.CoreTable(table, core)
		regions := t.Mappings(ttbr0, table)

		fmt.Fprintf(out, "CPU%d\n", core)
		fmt.Fprintf(out, "TTBR0: %08X\n", ttbr0)
		fmt.Fprintf(out, "TTBR1: %08X\n", table)
		fmt.Fprintf(out, "===============\n")

		for _, r := range regions {
			fmt.Fprintf(out, "%s\n", r)
		}

		fmt.Fprintf(out, "\n")

		cores = append(cores, regions)
	}

	if *png == "" {
		return
	}

	f, err := fs.Create(*png)

	if err != nil {
		return fmt.Errorf("could not create %s, %v", *png, err)
	}
	defer f.Close()

	return render(f, cores)
}
