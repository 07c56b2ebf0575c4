// SPDX-License-Identifier: AGPL-3.0-or-later

package drift

import (
	"context"
	"os"
	"strings"

	"github.com/bartekus/driftwatch/internal/execx"
	"github.com/bartekus/driftwatch/internal/gitio"
	"github.com/bartekus/driftwatch/internal/policy"
)

// fakeFiles serves file content without a repository.
type fakeFiles struct {
	work     map[string]string
	baseline map[string]string
}

func (f *fakeFiles) ReadWorkFile(path string) (string, error) {
	if content, ok := f.work[path]; ok {
		return content, nil
	}
	return "", os.ErrNotExist
}

func (f *fakeFiles) ShowFile(_ context.Context, _ string, path string) string {
	return f.baseline[path]
}

// fileDiff renders one file's entry of a unified diff from its added and
// removed lines.
func fileDiff(path string, added, removed []string) string {
	var b strings.Builder
	b.WriteString("diff --git a/" + path + " b/" + path + "\n")
	b.WriteString("--- a/" + path + "\n")
	b.WriteString("+++ b/" + path + "\n")
	b.WriteString("@@ -1 +1 @@\n")
	for _, line := range removed {
		b.WriteString("-" + line + "\n")
	}
	for _, line := range added {
		b.WriteString("+" + line + "\n")
	}
	return b.String()
}

// testInput assembles a detector input from the pieces a test cares about.
// Changed files default to the diff's paths.
func testInput(pol *policy.Policy, diff string, files []string, gates []execx.Result, fr FileReader) *Input {
	if pol == nil {
		pol = policy.Default()
	}
	if fr == nil {
		fr = &fakeFiles{}
	}
	if files == nil {
		for _, fd := range ParseDiff(diff).Files {
			files = append(files, fd.Path)
		}
	}
	cs := &gitio.ChangeSet{Files: files, Diff: diff}
	b := &gitio.Baseline{ResolvedRef: "main", Commit: "base", From: "base", To: "head"}
	return NewInput(b, cs, gates, pol, fr)
}

func failedGate(role, command, output string) execx.Result {
	code := 1
	return execx.Result{Name: role, Command: command, Status: execx.StatusFailed, ExitCode: &code, OutputExcerpt: output}
}
