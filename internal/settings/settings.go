package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Spectre3222/incremental-backup/internal/log"
)

//EnvPrefix prefixes the environment variables which may replace the flags, e.g. BACKUP_TARGET.
const EnvPrefix = "BACKUP"

const (
	keySources  = "sources"
	keyTarget   = "target"
	keyVerbose  = "verbose"
	keyLogLevel = "loglvl"
	keyLogToStd = "log2std"
	keyLogFile  = "logfile"
	keyWorkers  = "workers"
	keyInterval = "interval"
	keyConfig   = "config"
)

type Settings struct {
	SourceDirs []string
	TargetDir  string
	Verbose    bool
	LogLevel   log.Level
	LogToStd   bool
	LogFile    string
	Workers    int
	Interval   time.Duration
}

//RegisterFlags defines all the settings flags on the flag set.
func RegisterFlags(flagSet *pflag.FlagSet) {
	flagSet.BoolP(keyVerbose, "v", false, "show detailed file actions (copied and deleted entries)")
	flagSet.StringP(keyTarget, "t", "",
		"target (backup) folder, every source is synchronized into its same-named subfolder; the folder must exist")
	flagSet.String(keyLogLevel, log.InfoLevel,
		fmt.Sprintf("level of logging, permitted values are: %v, %v, %v, %v",
			log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel),
	)
	flagSet.Bool(keyLogToStd, false, "if true, then logs are written to the console, otherwise - to the log file")
	flagSet.String(keyLogFile, log.DefaultLogFile, "log file path (rotated by size), used unless -log2std is set")
	flagSet.Int(keyWorkers, 1, "number of source folders synchronized in parallel")
	flagSet.Duration(keyInterval, 0,
		"if positive, the backup is repeated with this period until interruption, otherwise it runs only once")
	flagSet.StringP(keyConfig, "c", "", "optional config file (yaml) with the same keys as the flags plus 'sources'")
}

//New parses the command arguments: flags followed by the source folders.
func New(commandArgs []string, errorHandling pflag.ErrorHandling) (*Settings, error) {
	flagSet := pflag.NewFlagSet("Incremental Backup CLI", errorHandling)
	RegisterFlags(flagSet)
	if err := flagSet.Parse(commandArgs); err != nil {
		return nil, err
	}
	return FromFlags(flagSet, flagSet.Args())
}

//FromFlags builds the settings from already parsed flags, the BACKUP_* environment and the config file
//(in this order of precedence). Source folders given as args replace the configured ones.
func FromFlags(flagSet *pflag.FlagSet, args []string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flagSet); err != nil {
		return nil, fmt.Errorf("cannot bind flags: %v", err)
	}

	if cfgFile := v.GetString(keyConfig); cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("config path %q cannot be expanded: %v", cfgFile, err)
		}
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config file %q: %v", path, err)
		}
	}

	stg := &Settings{
		SourceDirs: args,
		TargetDir:  v.GetString(keyTarget),
		Verbose:    v.GetBool(keyVerbose),
		LogLevel:   log.Level(strings.ToLower(strings.TrimSpace(v.GetString(keyLogLevel)))),
		LogToStd:   v.GetBool(keyLogToStd),
		LogFile:    v.GetString(keyLogFile),
		Workers:    v.GetInt(keyWorkers),
		Interval:   v.GetDuration(keyInterval),
	}
	if len(stg.SourceDirs) == 0 {
		stg.SourceDirs = v.GetStringSlice(keySources)
	}

	if err := stg.normalizePaths(); err != nil {
		return nil, err
	}
	if err := stg.Validate(); err != nil {
		return nil, err
	}
	return stg, nil
}

func (stg *Settings) normalizePaths() error {
	var err error
	for i, dir := range stg.SourceDirs {
		if stg.SourceDirs[i], err = absPath(dir); err != nil {
			return err
		}
	}
	if stg.TargetDir != "" {
		if stg.TargetDir, err = absPath(stg.TargetDir); err != nil {
			return err
		}
	}
	if stg.LogFile != "" {
		if stg.LogFile, err = absPath(stg.LogFile); err != nil {
			return err
		}
	}
	return nil
}

func absPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("path %q cannot be expanded: %v", path, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("path %q cannot be converted to absolute: %v", path, err)
	}
	return abs, nil
}

//Validate checks the settings consistency. It does not touch the filesystem:
//a missing target folder is reported by the backup run itself.
func (stg *Settings) Validate() error {
	if len(stg.SourceDirs) == 0 {
		return errors.New("at least one source folder must be specified (as an argument or in the config)")
	}
	if stg.TargetDir == "" {
		return errors.New("the target folder must be specified")
	}
	for _, src := range stg.SourceDirs {
		if isWithin(src, stg.TargetDir) {
			return fmt.Errorf("the target folder %q cannot be the source folder %q or lie inside it", stg.TargetDir, src)
		}
		if filepath.Join(stg.TargetDir, filepath.Base(src)) == src {
			return fmt.Errorf("the source folder %q cannot be its own backup subfolder of %q", src, stg.TargetDir)
		}
	}
	if !stg.LogLevel.IsValid() {
		return fmt.Errorf("logging level %q does not exist", stg.LogLevel)
	}
	if stg.Workers < 1 {
		return fmt.Errorf("workers count must be positive, got %d", stg.Workers)
	}
	if stg.Interval < 0 {
		return fmt.Errorf("interval cannot be negative, got %v", stg.Interval)
	}
	if stg.Workers > 1 {
		// same-named sources share a target subfolder, so they must not run concurrently
		baseNames := lo.Map(stg.SourceDirs, func(dir string, _ int) string { return filepath.Base(dir) })
		if dups := lo.FindDuplicates(baseNames); len(dups) > 0 {
			return fmt.Errorf("source folders with the same name %q cannot be synchronized in parallel", dups)
		}
	}
	return nil
}

//isWithin reports whether path is dir itself or lies below it (both are absolute and clean).
func isWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

type settingsView struct {
	Sources  []string `yaml:"sources"`
	Target   string   `yaml:"target"`
	Verbose  bool     `yaml:"verbose"`
	LogLevel string   `yaml:"loglvl"`
	LogToStd bool     `yaml:"log2std"`
	LogFile  string   `yaml:"logfile"`
	Workers  int      `yaml:"workers"`
	Interval string   `yaml:"interval"`
}

//YAML renders the effective settings in the config file format.
func (stg *Settings) YAML() ([]byte, error) {
	return yaml.Marshal(settingsView{
		Sources:  stg.SourceDirs,
		Target:   stg.TargetDir,
		Verbose:  stg.Verbose,
		LogLevel: string(stg.LogLevel),
		LogToStd: stg.LogToStd,
		LogFile:  stg.LogFile,
		Workers:  stg.Workers,
		Interval: stg.Interval.String(),
	})
}
