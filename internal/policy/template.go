// SPDX-License-Identifier: AGPL-3.0-or-later
package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const templateHeader = `# driftwatch policy
#
# Every key is optional. Anything omitted keeps the built-in default, so the
# smallest useful file is a single section. Commands are run through the shell
# from the repository root.
`

// WriteTemplate renders the default policy as a commented YAML document at
// path. It refuses to overwrite an existing file unless force is set.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	doc := Default()
	// Seed a couple of illustrative, commented-out-by-convention values so the
	// template is self-explanatory without being active.
	doc.Standards.Lint = []string{"golangci-lint run ./..."}
	doc.Standards.Test = []string{"go test ./..."}
	doc.API.PublicPaths = []string{"pkg/**"}
	doc.RiskControls.ProtectedGlobs = []string{".github/workflows/**", "go.mod"}
	doc.AutoRemediation.SafeDirectories = []string{"internal/", "pkg/"}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rendering policy template: %w", err)
	}

	var b strings.Builder
	b.WriteString(templateHeader)
	b.WriteString("\n")
	b.Write(body)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
