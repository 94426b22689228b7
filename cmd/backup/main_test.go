package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBackupCommand(t *testing.T) {
	requires := require.New(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "documents")
	target := filepath.Join(dir, "backup")
	requires.NoError(os.MkdirAll(src, 0o755))
	requires.NoError(os.MkdirAll(target, 0o755))
	requires.NoError(os.WriteFile(filepath.Join(src, "a.txt"), []byte("a"), 0o644))

	out, err := execute("--log2std", "--loglvl=error", "-v", "-t", target, src)

	requires.NoError(err)
	requires.Contains(out, "Starting backup at ")
	requires.Contains(out, "Copied: "+filepath.Join(src, "a.txt")+" -> "+filepath.Join(target, "documents", "a.txt"))
	requires.Contains(out, "Summary: 1 files copied, 0 files skipped, 0 files/directories deleted.")
	_, err = os.Stat(filepath.Join(target, "documents", "a.txt"))
	requires.NoError(err)
}

func TestBackupCommandTargetMissing(t *testing.T) {
	requires := require.New(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "absent")

	out, err := execute("--log2std", "--loglvl=error", "-t", target, filepath.Join(dir, "documents"))

	var exitErr *exitError
	requires.True(errors.As(err, &exitErr))
	requires.Equal(exitFailure, exitErr.code)
	requires.Contains(out, "Error: Target folder '"+target+"' does not exist. Backup aborted.")
}

func TestBackupCommandUsageError(t *testing.T) {
	requires := require.New(t)

	_, err := execute("--log2std", "some/source")

	var exitErr *exitError
	requires.True(errors.As(err, &exitErr))
	requires.Equal(exitUsage, exitErr.code)
}

func TestConfigCommand(t *testing.T) {
	requires := require.New(t)

	out, err := execute("config", "--workers=2", "-t", "/mnt/backup", "/data/photos", "/data/documents")

	requires.NoError(err)
	var decoded map[string]interface{}
	requires.NoError(yaml.Unmarshal([]byte(out), &decoded))
	requires.Equal([]interface{}{"/data/photos", "/data/documents"}, decoded["sources"])
	requires.Equal(2, decoded["workers"])
}
