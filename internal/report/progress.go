// SPDX-License-Identifier: AGPL-3.0-or-later
package report

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Phases tracks the engine's phase progress on stderr. A nil *Phases is a
// valid no-op, which is what quiet and CI runs use.
type Phases struct {
	bar *progressbar.ProgressBar
}

// NewPhases creates a phase tracker for total phases when enabled; otherwise
// it returns nil and every method no-ops.
func NewPhases(enabled bool, total int) *Phases {
	if !enabled {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
	)
	return &Phases{bar: bar}
}

// Step marks the start of the named phase.
func (p *Phases) Step(name string) {
	if p == nil || p.bar == nil {
		return
	}
	p.bar.Describe(name)
	_ = p.bar.Add(1)
}

// Done finishes the bar and clears the line. Calling it again is a no-op, so
// the engine's deferred cleanup and its pre-summary call do not double-finish.
func (p *Phases) Done() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}
