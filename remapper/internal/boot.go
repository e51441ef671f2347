// Copyright (c) The GoTEE authors. All Rights Reserved.
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

package boot

import (
	"errors"
	"fmt"
	"log"

	"github.com/usbarmory/mmu-remap/hook"
	"github.com/usbarmory/mmu-remap/mmu"
	"github.com/usbarmory/mmu-remap/platform"
	"github.com/usbarmory/mmu-remap/remap"
	"github.com/usbarmory/mmu-remap/util"
)

var (
	// Session holds the remapping state shared by all cores.
	Session *remap.Session
	// Hooks installs execution hooks in the active table.
	Hooks *hook.Injector
	// Console is the serial console instance.
	Console *util.Console
)

// Init prepares the remapping session for a given platform, it must be
// invoked once before any core calls Start.
func Init(p *platform.Platform, mem mmu.Memory, cache mmu.Cache) {
	Session = remap.NewSession(p, mem, cache)
	Session.Log = func(core int) *log.Logger {
		return util.CoreLogger(core, nil)
	}

	Hooks = &hook.Injector{
		Engine: Session.Engine,
		Table:  p.ActiveTable,
	}
}

// Start installs the patched translation tables on the invoking core.
func Start(fw remap.Firmware) (err error) {
	if Session == nil {
		return errors.New("remapping session not initialized")
	}

	return Session.Init(fw)
}

// Secondary installs the patched translation tables on a core other than
// core 0, it blocks until core 0 has built them.
//
// The vendor firmware brings up secondary cores, it must branch here from
// each of them.
func Secondary(fw remap.Firmware) (err error) {
	if core := fw.CoreID(); core == 0 {
		return fmt.Errorf("%w %d, expected a secondary core", remap.ErrCore, core)
	}

	return Start(fw)
}
