// Copyright (c) F-Secure Corporation
// https://foundry.f-secure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package util

import (
	"fmt"
	"io"
	"log"

	"golang.org/x/term"
)

// Console represents a terminal console instance.
type Console struct {
	// Banner is the welcome banner
	Banner string
	// Help is the `help` command output
	Help string
	// Handler is the terminal command handler
	Handler func(*term.Terminal, string) error
	// Term is the terminal instance
	Term *term.Terminal
}

// Start runs the console on the given serial port, it returns once the
// session is closed.
func (c *Console) Start(rw io.ReadWriter) {
	c.Term = term.NewTerminal(rw, "")
	c.Term.SetPrompt(string(c.Term.Escape.Red) + "> " + string(c.Term.Escape.Reset))

	fmt.Fprintf(c.Term, "%s\n", c.Banner)

	if c.Help != "" {
		fmt.Fprintf(c.Term, "%s\n", string(c.Term.Escape.Cyan)+c.Help+string(c.Term.Escape.Reset))
	}

	for {
		cmd, err := c.Term.ReadLine()

		if err == io.EOF {
			break
		}

		if err != nil {
			log.Printf("readline error: %v", err)
			continue
		}

		err = c.Handler(c.Term, cmd)

		if err == io.EOF {
			break
		}

		if err != nil {
			log.Printf("error: %v", err)
		}
	}

	log.Printf("closing console session")
}
