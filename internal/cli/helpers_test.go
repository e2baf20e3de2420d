package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const passingScenario = `
name: net_activations
steps:
  - enqueue: {type: activate, target: A}
    repeat: 3
  - enqueue: {type: deactivate, target: A}
  - advance: 300ms
expect:
  batches:
    - ["activate:A", "activate:A"]
  outcomes: {success: 4, failure: 0, cancelled: 1}
`

const failingScenario = `
name: wrong_expectation
steps:
  - enqueue: {type: activate, target: A}
  - flush: true
expect:
  batches: []
`
