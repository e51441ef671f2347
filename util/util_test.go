// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package util

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/term"
)

func TestBufferedStdoutLog(t *testing.T) {
	var out bytes.Buffer

	defer func(w io.Writer) { Output = w }(Output)
	Output = &out

	// interleaved bytes from both cores
	for i, c := range []byte("aaa\n") {
		BufferedStdoutLog(c, 0)
		BufferedStdoutLog("bbb\n"[i], 1)

		if i < 3 && out.Len() != 0 {
			t.Fatalf("partial line flushed %q", out.String())
		}
	}

	if got := out.String(); got != "aaa\nbbb\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestBufferedStdoutLogLimit(t *testing.T) {
	var out bytes.Buffer

	defer func(w io.Writer) { Output = w }(Output)
	Output = &out

	for i := 0; i <= outputLimit; i++ {
		BufferedStdoutLog('x', 2)
	}

	if out.Len() != outputLimit+1 {
		t.Errorf("unexpected flush size %d", out.Len())
	}
}

func TestCoreLogger(t *testing.T) {
	var out bytes.Buffer

	defer func(w io.Writer) { Output = w }(Output)
	Output = &out

	l := CoreLogger(1, nil)
	l.SetFlags(0)
	l.Printf("remap core%d installed", 1)

	if got := out.String(); got != "remap core1 installed\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestBufferedTermLog(t *testing.T) {
	var out bytes.Buffer

	tm := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{strings.NewReader(""), &out}, "")

	l := CoreLogger(0, tm)
	l.SetFlags(0)
	l.Print("hello")

	if !bytes.Contains(out.Bytes(), []byte("hello")) {
		t.Errorf("missing output %q", out.String())
	}

	if !bytes.HasPrefix(out.Bytes(), tm.Escape.Green) {
		t.Errorf("missing core color %q", out.String())
	}
}

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	var lines []string

	c := &Console{
		Banner: "remapper",
		Handler: func(_ *term.Terminal, line string) error {
			lines = append(lines, line)

			switch line {
			case "exit":
				return io.EOF
			case "fail":
				return errors.New("failure")
			}

			return nil
		},
	}

	c.Start(struct {
		io.Reader
		io.Writer
	}{strings.NewReader("one\rfail\rexit\rtwo\r"), &out})

	if got := strings.Join(lines, ","); got != "one,fail,exit" {
		t.Errorf("unexpected commands %q", got)
	}

	if !strings.Contains(out.String(), "remapper") {
		t.Errorf("missing banner")
	}
}
