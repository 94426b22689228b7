package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Spectre3222/incremental-backup/internal/backup"
	"github.com/Spectre3222/incremental-backup/internal/log"
	"github.com/Spectre3222/incremental-backup/internal/settings"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

const (
	exitFailure = 1
	exitUsage   = 2
)

type exitError struct {
	code     int
	err      error
	reported bool // already printed to the console
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitUsage)
		}
		if !exitErr.reported {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitErr.code)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "backup [flags] SOURCE...",
		Short: "Incremental backup of source folders into a target folder",
		Long: `backup synchronizes source folders with a target backup folder.
It copies new/updated files, skips unchanged files, and removes files in the target
that no longer exist in the source. Every source is synchronized into a subfolder of the
target named after the source folder.`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBackup,
	}
	settings.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "config [flags] [SOURCE...]",
		Short: "Print the effective configuration as yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			stg, err := settings.FromFlags(cmd.Flags(), args)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			out, err := stg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	return rootCmd
}

func runBackup(cmd *cobra.Command, args []string) error {
	stg, err := settings.FromFlags(cmd.Flags(), args)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	logger, err := log.New(stg.LogLevel, stg.LogToStd, stg.LogFile)
	if err != nil {
		return &exitError{code: exitFailure, err: fmt.Errorf("cannot create logger: %w", err)}
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Starting backup at %s\n", time.Now().Format(backup.TimeLayout))

	driver := backup.New(logger, afero.NewOsFs(), *stg, out)
	err = driver.Start(ctx, stop, func(summary backup.Summary) {
		fmt.Fprintf(out, "Backup completed at %s\n", summary.FinishedAt.Format(backup.TimeLayout))
		if err := backup.WriteSummary(out, summary); err != nil {
			logger.Error("cannot print the summary", log.Cause(err))
		}
	})
	if errors.Is(err, backup.ErrTargetRootMissing) {
		fmt.Fprintf(out, "Error: Target folder '%s' does not exist. Backup aborted.\n", stg.TargetDir)
		return &exitError{code: exitFailure, err: err, reported: true}
	}
	if err != nil {
		return &exitError{code: exitFailure, err: err}
	}
	return nil
}
