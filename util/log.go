// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package util

import (
	"bytes"
	"io"
	"log"
	"os"
	"sync"

	"golang.org/x/term"
)

const outputLimit = 1024
const flushChr = 0x0a // \n

// Output is the destination of flushed core logs.
var Output io.Writer = os.Stdout

var (
	mu     sync.Mutex
	output = make(map[int]*bytes.Buffer)
)

func coreBuffer(core int) *bytes.Buffer {
	buf, ok := output[core]

	if !ok {
		buf = new(bytes.Buffer)
		output[core] = buf
	}

	return buf
}

// BufferedStdoutLog buffers log output of a single core until a newline, to
// avoid interleaved logs as cores are logging simultaneously.
func BufferedStdoutLog(c byte, core int) {
	mu.Lock()
	defer mu.Unlock()

	buf := coreBuffer(core)
	buf.WriteByte(c)

	if c == flushChr || buf.Len() > outputLimit {
		Output.Write(buf.Bytes())
		buf.Reset()
	}
}

// BufferedTermLog buffers log output of a single core until a newline, the
// output is then written to a terminal with a color for each core.
func BufferedTermLog(c byte, core int, t *term.Terminal) {
	mu.Lock()
	defer mu.Unlock()

	var color []byte

	switch core {
	case 0:
		color = t.Escape.Green
	case 1:
		color = t.Escape.Cyan
	default:
		color = t.Escape.Yellow
	}

	buf := coreBuffer(core)
	buf.WriteByte(c)

	if c == flushChr || buf.Len() > outputLimit {
		t.Write(color)
		t.Write(buf.Bytes())
		t.Write(t.Escape.Reset)

		buf.Reset()
	}
}

type coreWriter struct {
	core int
	term *term.Terminal
}

func (w *coreWriter) Write(p []byte) (int, error) {
	for _, c := range p {
		if w.term != nil {
			BufferedTermLog(c, w.core, w.term)
		} else {
			BufferedStdoutLog(c, w.core)
		}
	}

	return len(p), nil
}

// CoreLogger returns a logger for a given core, its output is written to
// the terminal when not nil or to Output otherwise.
func CoreLogger(core int, t *term.Terminal) *log.Logger {
	return log.New(&coreWriter{core: core, term: t}, "", log.Ltime)
}
