// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"runtime"
	"runtime/debug"
	"runtime/pprof"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/usbarmory/mmu-remap/remapper/internal"
)

func init() {
	Add(Cmd{
		Name: "help",
		Help: "this help",
		Fn:   helpCmd,
	})

	Add(Cmd{
		Name:    "exit, quit",
		Args:    1,
		Pattern: regexp.MustCompile(`^(exit|quit)$`),
		Help:    "leave the serial console, remapping stays in effect",
		Fn:      exitCmd,
	})

	Add(Cmd{
		Name: "cores",
		Help: "per-core remapping state",
		Fn:   coresCmd,
	})

	Add(Cmd{
		Name: "stack",
		Help: "stack trace of the console goroutine",
		Fn:   stackCmd,
	})

	Add(Cmd{
		Name: "stackall",
		Help: "stack trace of all goroutines",
		Fn:   stackallCmd,
	})
}

func helpCmd(term *term.Terminal, _ []string) (string, error) {
	return Help(term), nil
}

func exitCmd(_ *term.Terminal, _ []string) (string, error) {
	if boot.Session != nil {
		log.Printf("serial console closed, remapping %s", boot.Session.StateName())
	}

	return "", io.EOF
}

func coresCmd(_ *term.Terminal, _ []string) (string, error) {
	var buf bytes.Buffer

	s := boot.Session

	if s == nil {
		return "", errors.New("remapping session not initialized")
	}

	t := tabwriter.NewWriter(&buf, 8, 8, 1, ' ', 0)
	fmt.Fprintf(t, "core\tstate\tttbr0\tttbr1\n")

	for core := 0; core < s.Platform.Geometry.Cores; core++ {
		state := "vendor"

		if s.CoreInstalled(core) {
			state = "remapped"
		}

		ttbr0, ttbr1 := tableBase(core)
		fmt.Fprintf(t, "%d\t%s\t%#.8x\t%#.8x\n", core, state, ttbr0, ttbr1)
	}

	t.Flush()

	return buf.String(), nil
}

func stackCmd(_ *term.Terminal, _ []string) (string, error) {
	return string(debug.Stack()), nil
}

func stackallCmd(_ *term.Terminal, _ []string) (string, error) {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "goroutines:%d\n", runtime.NumGoroutine())
	pprof.Lookup("goroutine").WriteTo(buf, 1)

	return buf.String(), nil
}
