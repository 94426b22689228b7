package dirsyncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/Spectre3222/incremental-backup/internal/log"
	"github.com/Spectre3222/incremental-backup/internal/model"
)

var (
	ErrSourceMissing     = errors.New("source directory does not exist")
	ErrSourceNotDir      = errors.New("source path is not a directory")
	ErrTargetUncreatable = errors.New("target directory cannot be created")
)

//Synchronizer makes one target directory tree mirror one source directory tree:
//new and modified files are copied, unchanged ones are skipped, and whatever the source
//no longer has is removed from the target.
//It assumes exclusive access to the target tree for the duration of a call.
type Synchronizer struct {
	log      log.Logger
	fs       afero.Fs
	reporter Reporter
}

func New(logger log.Logger, fsys afero.Fs, reporter Reporter) *Synchronizer {
	if reporter == nil {
		reporter = NewLogReporter(logger, false)
	}
	return &Synchronizer{log: logger, fs: fsys, reporter: reporter}
}

//Synchronize runs the copy-forward pass and then the prune-backward pass.
//
//A missing (or non-directory) source root and an uncreatable target root are setup errors:
//nothing is touched and zero counts are returned with the error. Per-entry failures are only
//reported, they never make Synchronize fail. A canceled ctx stops the traversal between
//entries, the partial counts are returned with ctx.Err().
func (s *Synchronizer) Synchronize(ctx context.Context, sourceRoot, targetRoot string) (model.SyncResult, error) {
	start := time.Now()
	s.log.Info("synchronization started", log.String("source", sourceRoot), log.String("target", targetRoot))

	if err := s.checkSource(sourceRoot); err != nil {
		s.log.Error("synchronization aborted", log.String("source", sourceRoot), log.Cause(err))
		return model.SyncResult{}, err
	}
	if err := s.ensureTarget(targetRoot); err != nil {
		s.log.Error("synchronization aborted", log.String("target", targetRoot), log.Cause(err))
		return model.SyncResult{}, err
	}

	c := newCopier(s.log, s.fs, s.reporter, sourceRoot, targetRoot)
	err := c.copyDir(ctx, ".")
	result := c.result
	if err == nil {
		p := newPruner(s.log, s.fs, s.reporter, sourceRoot, targetRoot)
		err = p.pruneDir(ctx, ".", true)
		result.Deleted = p.deleted
	}

	fields := []log.Field{
		log.String("source", sourceRoot),
		log.String("target", targetRoot),
		log.Int("copied", result.Copied),
		log.Int("skipped", result.Skipped),
		log.Int("deleted", result.Deleted),
		log.Duration("took", time.Since(start)),
	}
	if err != nil {
		s.log.Warn("synchronization interrupted", append(fields, log.Cause(err))...)
		return result, err
	}
	s.log.Info("synchronization finished", fields...)
	return result, nil
}

// roots may be symbolic links to directories, so they are stat-ed with links followed
func (s *Synchronizer) checkSource(sourceRoot string) error {
	info, err := s.fs.Stat(sourceRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrSourceMissing, sourceRoot)
		}
		return fmt.Errorf("%w: %q: %w", ErrSourceMissing, sourceRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q", ErrSourceNotDir, sourceRoot)
	}
	return nil
}

func (s *Synchronizer) ensureTarget(targetRoot string) error {
	info, err := s.fs.Stat(targetRoot)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("%w: %q is not a directory", ErrTargetUncreatable, targetRoot)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %q: %w", ErrTargetUncreatable, targetRoot, err)
	}
	if err := s.fs.MkdirAll(targetRoot, os.ModePerm); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrTargetUncreatable, targetRoot, err)
	}
	s.log.Debug("target directory created", log.String("target", targetRoot))
	return nil
}
