package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Spectre3222/incremental-backup/internal/log"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		commandArgs []string
		panic       bool
		wantErr     bool
		want        *Settings
	}{
		{name: "flag panic 1", commandArgs: []string{"--undefined"}, panic: true},
		{name: "flag panic 2", commandArgs: []string{"--verbose=123"}, panic: true},
		{name: "flag panic 3", commandArgs: []string{"--loglvl"}, panic: true},
		{name: "flag panic 4", commandArgs: []string{"--workers=a"}, panic: true},
		{name: "flag panic 5", commandArgs: []string{"--interval=b"}, panic: true},
		{name: "no args", commandArgs: nil, wantErr: true},
		{name: "no target", commandArgs: []string{"dir1"}, wantErr: true},
		{name: "no sources", commandArgs: []string{"-t", "backup"}, wantErr: true},
		{name: "bad level", commandArgs: []string{"--loglvl=nope", "-t", "backup", "d1"}, wantErr: true},
		{name: "same dirs", commandArgs: []string{"-t", "dir", "dir"}, wantErr: true},
		{name: "target inside source", commandArgs: []string{"-t", "dir/backup", "dir"}, wantErr: true},
		{name: "source is own backup subfolder", commandArgs: []string{"-t", "backup", "backup/docs"}, wantErr: true},
		{
			name:        "target next to source",
			commandArgs: []string{"-t", "dir/../backup", "dir"},
			want: &Settings{
				SourceDirs: []string{abs("dir")},
				TargetDir:  abs("backup"),
				LogLevel:   log.InfoLevel,
				LogFile:    abs(log.DefaultLogFile),
				Workers:    1,
			},
		},
		{
			name:        "source inside target under another name",
			commandArgs: []string{"-t", "backup", "backup/old/docs"},
			want: &Settings{
				SourceDirs: []string{abs("backup/old/docs")},
				TargetDir:  abs("backup"),
				LogLevel:   log.InfoLevel,
				LogFile:    abs(log.DefaultLogFile),
				Workers:    1,
			},
		},
		{name: "zero workers", commandArgs: []string{"--workers=0", "-t", "backup", "d1"}, wantErr: true},
		{name: "negative interval", commandArgs: []string{"--interval=-1s", "-t", "backup", "d1"}, wantErr: true},
		{
			name:        "same names in parallel",
			commandArgs: []string{"--workers=2", "-t", "backup", "a/docs", "b/docs"},
			wantErr:     true,
		},
		{
			name:        "same names sequentially",
			commandArgs: []string{"-t", "backup", "a/docs", "b/docs"},
			want: &Settings{
				SourceDirs: []string{abs("a/docs"), abs("b/docs")},
				TargetDir:  abs("backup"),
				LogLevel:   log.InfoLevel,
				LogFile:    abs(log.DefaultLogFile),
				Workers:    1,
			},
		},
		{
			name: "valid args",
			commandArgs: []string{"-v", "--log2std", "--loglvl=DEBUG", "--logfile=sync.log",
				"--workers=4", "--interval=3s", "--target=backup", "dir1", "dir2"},
			want: &Settings{
				SourceDirs: []string{abs("dir1"), abs("dir2")},
				TargetDir:  abs("backup"),
				Verbose:    true,
				LogLevel:   log.DebugLevel,
				LogToStd:   true,
				LogFile:    abs("sync.log"),
				Workers:    4,
				Interval:   3 * time.Second,
			},
		},
		{
			name:        "default args",
			commandArgs: []string{"-t", "backup", "dir1"},
			want: &Settings{
				SourceDirs: []string{abs("dir1")},
				TargetDir:  abs("backup"),
				LogLevel:   log.InfoLevel,
				LogFile:    abs(log.DefaultLogFile),
				Workers:    1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				stg *Settings
				err error
			)

			requires := require.New(t)
			if tt.panic {
				requires.Panics(func() {
					stg, err = New(tt.commandArgs, pflag.PanicOnError)
				})
				return
			}

			requires.NotPanics(func() {
				stg, err = New(tt.commandArgs, pflag.PanicOnError)
			})

			if tt.wantErr {
				requires.Error(err)
				requires.Nil(stg)
				return
			}

			requires.NoError(err)
			requires.NotNil(stg)
			requires.Equal(*tt.want, *stg)
		})
	}
}

func TestNewFromConfigFileAndEnv(t *testing.T) {
	requires := require.New(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "backup.yaml")
	requires.NoError(os.WriteFile(cfgPath, []byte(`
sources:
  - /data/photos
  - /data/documents
target: /mnt/backup
verbose: true
workers: 2
interval: 1m
`), 0o644))
	t.Setenv("BACKUP_LOGLVL", "warn")
	t.Setenv("BACKUP_WORKERS", "3")

	stg, err := New([]string{"--config", cfgPath, "--logfile", filepath.Join(dir, "b.log")}, pflag.ContinueOnError)

	requires.NoError(err)
	requires.Equal(&Settings{
		SourceDirs: []string{"/data/photos", "/data/documents"},
		TargetDir:  "/mnt/backup",
		Verbose:    true,
		LogLevel:   log.WarnLevel,
		LogFile:    filepath.Join(dir, "b.log"),
		Workers:    3, // env wins over the config file
		Interval:   time.Minute,
	}, stg)
}

func TestNewArgsOverrideConfiguredSources(t *testing.T) {
	requires := require.New(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "backup")
	requires.NoError(os.WriteFile(cfgPath, []byte("sources: [/data/photos]\ntarget: /mnt/backup\n"), 0o644))

	stg, err := New([]string{"-c", cfgPath, "/data/music"}, pflag.ContinueOnError)

	requires.NoError(err)
	requires.Equal([]string{"/data/music"}, stg.SourceDirs)
}

func TestNewExpandsHomeDir(t *testing.T) {
	requires := require.New(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	defer func() { homedir.DisableCache = false }()

	stg, err := New([]string{"-t", "~/backup", "~/docs"}, pflag.ContinueOnError)

	requires.NoError(err)
	requires.Equal(filepath.Join(home, "backup"), stg.TargetDir)
	requires.Equal([]string{filepath.Join(home, "docs")}, stg.SourceDirs)
}

func TestSettings_YAML(t *testing.T) {
	requires := require.New(t)
	stg := &Settings{
		SourceDirs: []string{"/data/photos"},
		TargetDir:  "/mnt/backup",
		LogLevel:   log.InfoLevel,
		Workers:    1,
		Interval:   90 * time.Second,
	}

	out, err := stg.YAML()
	requires.NoError(err)

	var decoded map[string]interface{}
	requires.NoError(yaml.Unmarshal(out, &decoded))
	requires.Equal([]interface{}{"/data/photos"}, decoded["sources"])
	requires.Equal("/mnt/backup", decoded["target"])
	requires.Equal("1m30s", decoded["interval"])
}

func abs(path string) string {
	s, _ := filepath.Abs(path)
	return s
}
