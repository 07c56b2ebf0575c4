// SPDX-License-Identifier: AGPL-3.0-or-later

package drift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/driftwatch/internal/policy"
)

const baseGoMod = `module example.com/app

go 1.24

require (
	github.com/spf13/cobra v1.10.1
)
`

const headGoMod = `module example.com/app

go 1.24

require (
	github.com/spf13/cobra v1.10.1
	github.com/evil/leftpad v1.0.0
	github.com/new/thing v0.3.0
)
`

func depInput(pol *policy.Policy, lockChanged bool) *Input {
	files := []string{"go.mod"}
	if lockChanged {
		files = append(files, "go.sum")
	}
	fr := &fakeFiles{
		work:     map[string]string{"go.mod": headGoMod},
		baseline: map[string]string{"go.mod": baseGoMod},
	}
	return testInput(pol, "", files, nil, fr)
}

func TestDependencyDetector_Denylist(t *testing.T) {
	pol := policy.Default()
	pol.Dependencies.Denylist = []string{"github.com/evil/leftpad"}

	findings := (&DependencyDetector{}).Detect(context.Background(), depInput(pol, true))

	f := findByTitle(t, findings, "Denylisted dependency added to go.mod")
	assert.Equal(t, SeverityCritical, f.Severity)
	assert.Equal(t, []string{"github.com/evil/leftpad"}, f.Evidence)

	// The other gained dep is informational.
	info := findByTitle(t, findings, "New dependencies declared in go.mod")
	assert.Equal(t, SeverityLow, info.Severity)
	assert.Equal(t, []string{"github.com/new/thing"}, info.Evidence)
}

func TestDependencyDetector_Allowlist(t *testing.T) {
	pol := policy.Default()
	pol.Dependencies.Allowlist = []string{"github.com/new/thing"}

	findings := (&DependencyDetector{}).Detect(context.Background(), depInput(pol, true))

	f := findByTitle(t, findings, "Dependency outside the allow-list added to go.mod")
	assert.Equal(t, SeverityHigh, f.Severity)
	assert.Equal(t, []string{"github.com/evil/leftpad"}, f.Evidence)
}

func TestDependencyDetector_LockfileSync(t *testing.T) {
	findings := (&DependencyDetector{}).Detect(context.Background(), depInput(policy.Default(), false))

	f := findByTitle(t, findings, "Manifest changed without a lockfile update")
	assert.Equal(t, SeverityMedium, f.Severity)

	// A lockfile change alongside the manifest silences it.
	synced := (&DependencyDetector{}).Detect(context.Background(), depInput(policy.Default(), true))
	for _, f := range synced {
		assert.NotEqual(t, "Manifest changed without a lockfile update", f.Title)
	}

	// So does disabling the requirement.
	pol := policy.Default()
	pol.Dependencies.RequireLockfileSync = false
	relaxed := (&DependencyDetector{}).Detect(context.Background(), depInput(pol, false))
	for _, f := range relaxed {
		assert.NotEqual(t, "Manifest changed without a lockfile update", f.Title)
	}
}

func TestParseManifest(t *testing.T) {
	t.Run("go.mod single require", func(t *testing.T) {
		deps := parseManifest("go.mod", "module m\n\nrequire github.com/pkg/errors v0.9.1\n")
		assert.Equal(t, []string{"github.com/pkg/errors"}, deps)
	})

	t.Run("package.json", func(t *testing.T) {
		deps := parseManifest("package.json", `{"dependencies":{"react":"^18"},"devDependencies":{"vitest":"^1"}}`)
		assert.Equal(t, []string{"react", "vitest"}, deps)
	})

	t.Run("requirements.txt", func(t *testing.T) {
		deps := parseManifest("requirements.txt", "requests==2.31.0\n# comment\nflask>=3\n")
		assert.Equal(t, []string{"requests", "flask"}, deps)
	})

	t.Run("Cargo.toml", func(t *testing.T) {
		deps := parseManifest("Cargo.toml", "[package]\nname = \"x\"\n\n[dependencies]\nserde = \"1\"\ntokio = { version = \"1\" }\n")
		assert.Equal(t, []string{"serde", "tokio"}, deps)
	})

	t.Run("pyproject PEP 621", func(t *testing.T) {
		deps := parseManifest("pyproject.toml", "[project]\ndependencies = [\n  \"httpx>=0.27\",\n  \"pydantic\",\n]\n")
		assert.Equal(t, []string{"httpx", "pydantic"}, deps)
	})

	t.Run("Gemfile", func(t *testing.T) {
		deps := parseManifest("Gemfile", "source 'https://rubygems.org'\ngem 'rails', '~> 7.1'\n")
		assert.Equal(t, []string{"rails"}, deps)
	})

	t.Run("empty baseline yields nil", func(t *testing.T) {
		assert.Nil(t, parseManifest("go.mod", ""))
	})
}

func TestSubtract(t *testing.T) {
	gained := subtract([]string{"a", "b", "C"}, []string{"a", "c"})
	require.Equal(t, []string{"b"}, gained) // case-insensitive, sorted
}
