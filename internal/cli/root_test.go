package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ranked.yaml")
	contents := fmt.Sprintf("database_path: %s\nserver_url: http://127.0.0.1:1\n",
		filepath.Join(dir, "ranked.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(contents), 0o600))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) string {
	t.Helper()
	out, err := runE(cfgPath, args...)
	require.NoError(t, err)
	return out
}

func runE(cfgPath string, args ...string) (string, error) {
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestCreateAndList(t *testing.T) {
	cfg := testConfig(t)

	out := run(t, cfg, "create", "Movies", "--description", "all-time")
	require.Contains(t, out, "created ranking 1: Movies (0 items)")

	out = run(t, cfg, "list")
	require.Contains(t, out, "1: Movies - 0 items")
}

func TestCreateWithImportFile(t *testing.T) {
	cfg := testConfig(t)
	importPath := filepath.Join(t.TempDir(), "items.txt")
	require.NoError(t, os.WriteFile(importPath, []byte("Alpha\nBeta (great)\n\nGamma\n"), 0o600))

	out := run(t, cfg, "create", "Movies", "--import", importPath)
	require.Contains(t, out, "(3 items)")

	out = run(t, cfg, "list", "1")
	require.Contains(t, out, "1. Alpha")
	require.Contains(t, out, "2. Beta (great)")
	require.Contains(t, out, "3. Gamma")
}

func TestAddAndReorder(t *testing.T) {
	cfg := testConfig(t)
	run(t, cfg, "create", "Books")
	run(t, cfg, "add", "1", "One")
	out := run(t, cfg, "add", "1", "Two", "--notes", "sequel")
	require.Contains(t, out, `added "Two" at rank 2`)

	run(t, cfg, "reorder", "1", "2", "1")
	out = run(t, cfg, "list", "1")
	require.Contains(t, out, "1. Two")
	require.Contains(t, out, "2. One")
}

func TestStatusWhenSignedOut(t *testing.T) {
	cfg := testConfig(t)
	run(t, cfg, "create", "Movies")

	out := run(t, cfg, "status")
	require.Contains(t, out, "signed in: no")
	require.Contains(t, out, "rankings:  1")
	require.Contains(t, out, "pending:   0 changes")
}

func TestSyncWhileAnonymousIsNoop(t *testing.T) {
	cfg := testConfig(t)

	out := run(t, cfg, "sync")
	require.Contains(t, out, "not signed in")
}

func TestInvalidIDsAreRejected(t *testing.T) {
	cfg := testConfig(t)
	run(t, cfg, "create", "Movies")

	_, err := runE(cfg, "add", "zero", "Name")
	require.Error(t, err)
	_, err = runE(cfg, "list", "-5")
	require.Error(t, err)
}
