// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/usbarmory/mmu-remap/remapper/internal"
	"github.com/usbarmory/mmu-remap/util"
)

// Banner is the console welcome banner.
var Banner string

// Cmd represents a console command.
type Cmd struct {
	Name    string
	Args    int
	Pattern *regexp.Regexp
	Syntax  string
	Help    string
	Fn      func(*term.Terminal, []string) (string, error)
}

var cmds = make(map[string]*Cmd)

// Add registers a console command, commands without a Pattern match their
// Name exactly.
func Add(cmd Cmd) {
	if cmd.Pattern == nil {
		cmd.Pattern = regexp.MustCompile(`^` + regexp.QuoteMeta(cmd.Name) + `$`)
	}

	cmds[cmd.Name] = &cmd
}

// Help returns the list of registered commands.
func Help(term *term.Terminal) string {
	var help bytes.Buffer
	var names []string

	t := tabwriter.NewWriter(&help, 16, 8, 0, '\t', tabwriter.TabIndent)

	for name := range cmds {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(t, "%s\t%s\t # %s\n", cmds[name].Name, cmds[name].Syntax, cmds[name].Help)
	}

	t.Flush()

	if term == nil {
		return help.String()
	}

	return string(term.Escape.Cyan) + help.String() + string(term.Escape.Reset)
}

// Handle executes the command matching a console input line.
func Handle(term *term.Terminal, line string) (err error) {
	var match *Cmd
	var arg []string
	var res string

	for _, cmd := range cmds {
		if m := cmd.Pattern.FindStringSubmatch(line); len(m) > 0 && len(m)-1 == cmd.Args {
			match = cmd
			arg = m[1:]
			break
		}
	}

	if match == nil {
		return errors.New("unknown command, type `help`")
	}

	if res, err = match.Fn(term, arg); err != nil {
		return
	}

	if len(res) > 0 {
		fmt.Fprintln(term, res)
	}

	return
}

// SerialConsole runs the console over a serial port, it returns once the
// session is closed.
func SerialConsole(port io.ReadWriter) {
	boot.Console = &util.Console{
		Banner:  Banner,
		Handler: Handle,
	}

	boot.Console.Start(port)
}
