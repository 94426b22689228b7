package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marusama/semaphore/v2"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/Spectre3222/incremental-backup/internal/dirsyncer"
	"github.com/Spectre3222/incremental-backup/internal/log"
	"github.com/Spectre3222/incremental-backup/internal/model"
	"github.com/Spectre3222/incremental-backup/internal/settings"
	"github.com/Spectre3222/incremental-backup/pkg/helpers/run"
)

//ErrTargetRootMissing is the only error that aborts a whole run: nothing is synchronized without the backup target.
var ErrTargetRootMissing = errors.New("target folder does not exist")

//Pair is one source directory and the target subfolder it is synchronized into.
type Pair struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

//PairResult is the outcome of the synchronization of one pair.
type PairResult struct {
	Pair
	Result   model.SyncResult
	Failures []dirsyncer.Failure
	Err      error
}

//Summary describes one run of all the pairs.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Pairs      []PairResult
}

//Total sums the counters of all the pairs.
func (s Summary) Total() model.SyncResult {
	return lo.Reduce(s.Pairs, func(acc model.SyncResult, p PairResult, _ int) model.SyncResult {
		return acc.Add(p.Result)
	}, model.SyncResult{})
}

//FailuresCount counts reported per-entry failures plus the pairs which could not be set up.
func (s Summary) FailuresCount() int {
	return lo.SumBy(s.Pairs, func(p PairResult) int {
		if p.Err != nil {
			return len(p.Failures) + 1
		}
		return len(p.Failures)
	})
}

//Driver synchronizes every configured source folder into a same-named subfolder of the target folder.
type Driver struct {
	log      log.Logger
	fs       afero.Fs
	settings settings.Settings
	console  io.Writer
}

//New creates a driver. Verbose narration and failures are printed to console (if not nil).
func New(logger log.Logger, fsys afero.Fs, stg settings.Settings, console io.Writer) *Driver {
	if console != nil {
		console = &lockedWriter{w: console} // pairs may run in parallel
	}
	return &Driver{log: logger, fs: fsys, settings: stg, console: console}
}

//Pairs maps every source folder to its target subfolder, named after the source base name.
func (d *Driver) Pairs() []Pair {
	return lo.Map(d.settings.SourceDirs, func(src string, _ int) Pair {
		return Pair{Source: src, Target: filepath.Join(d.settings.TargetDir, filepath.Base(filepath.Clean(src)))}
	})
}

//Start runs the backup once or, if an interval is configured, repeatedly until ctx is done.
//It returns only most critical errors that make further work impossible, otherwise returns nil.
func (d *Driver) Start(ctx context.Context, stop context.CancelFunc, onSummary func(Summary)) (err error) {
	defer func() {
		if p := recover(); p != nil {
			stop()
			if perr, ok := p.(error); ok {
				err = perr
			} else {
				err = fmt.Errorf("panic! %v", p)
			}
		}
	}()

	runOnce := func() error {
		summary, err := d.Run(ctx)
		if err != nil {
			return err
		}
		if onSummary != nil {
			onSummary(summary)
		}
		return nil
	}

	if d.settings.Interval <= 0 {
		return runOnce()
	}

	if err := runOnce(); err != nil {
		return err
	}
	ticker := time.NewTicker(d.settings.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			stop() // stop receiving signal notifications as soon as possible
			return nil
		case <-ticker.C:
			if err := runOnce(); err != nil {
				return err
			}
		}
	}
}

//Run synchronizes all the pairs once. A failing pair never prevents its siblings from running.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), StartedAt: time.Now()}
	l := runLogger{Logger: d.log, runID: summary.RunID}

	if err := d.checkTargetRoot(); err != nil {
		l.Error("backup aborted", log.Cause(err))
		return summary, err
	}

	pairs := d.Pairs()
	l.Info("backup started",
		log.Any("sources", d.settings.SourceDirs),
		log.String("target", d.settings.TargetDir),
		log.Int("workers", d.settings.Workers),
		log.Bool("verbose", d.settings.Verbose),
	)
	summary.Pairs = make([]PairResult, len(pairs))

	if d.settings.Workers <= 1 {
		for i, pair := range pairs {
			summary.Pairs[i] = d.runPair(ctx, l, pair)
		}
	} else {
		d.runParallel(ctx, l, pairs, summary.Pairs)
	}

	summary.FinishedAt = time.Now()
	total := summary.Total()
	l.Info("backup completed",
		log.Int("copied", total.Copied),
		log.Int("skipped", total.Skipped),
		log.Int("deleted", total.Deleted),
		log.Int("failures", summary.FailuresCount()),
		log.Duration("took", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

//runParallel may run pairs concurrently because their targets are distinct subfolders.
func (d *Driver) runParallel(ctx context.Context, l log.Logger, pairs []Pair, results []PairResult) {
	sem := semaphore.New(d.settings.Workers)
	workers := make(map[int]<-chan error, len(pairs))
	for i, pair := range pairs {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = PairResult{Pair: pair, Err: err}
			continue
		}
		i, pair := i, pair
		workers[i] = run.AsyncWithError(func() error {
			defer sem.Release(1)
			results[i] = d.runPair(ctx, l, pair)
			return nil
		})
	}
	for i, errCh := range workers {
		if err := <-errCh; err != nil {
			results[i] = PairResult{Pair: pairs[i], Err: err}
			l.Error("pair worker failed", log.String("source", pairs[i].Source), log.Cause(err))
		}
	}
}

func (d *Driver) runPair(ctx context.Context, l log.Logger, pair Pair) PairResult {
	res := PairResult{Pair: pair}
	collector := dirsyncer.NewErrorCollector()
	reporters := []dirsyncer.Reporter{dirsyncer.NewLogReporter(l, d.settings.Verbose), collector}
	if d.console != nil {
		reporters = append(reporters, dirsyncer.NewConsoleReporter(d.console, d.settings.Verbose))
	}
	syncer := dirsyncer.New(l, d.fs, dirsyncer.Reporters(reporters...))

	err := run.WithError(func() error {
		var err error
		res.Result, err = syncer.Synchronize(ctx, pair.Source, pair.Target)
		return err
	})
	res.Failures = collector.Failures()
	if err != nil {
		res.Err = err
		l.Error("pair synchronization failed",
			log.String("source", pair.Source), log.String("target", pair.Target), log.Cause(err))
		if d.console != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(d.console, "Error: %v\n", err)
		}
	}
	return res
}

func (d *Driver) checkTargetRoot() error {
	ok, err := afero.DirExists(d.fs, d.settings.TargetDir)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrTargetRootMissing, d.settings.TargetDir, err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrTargetRootMissing, d.settings.TargetDir)
	}
	return nil
}

//runLogger tags every record with the run identifier.
type runLogger struct {
	log.Logger
	runID string
}

func (l runLogger) with(fields []log.Field) []log.Field {
	return append(fields, log.String("runID", l.runID))
}

func (l runLogger) Debug(msg string, fields ...log.Field) { l.Logger.Debug(msg, l.with(fields)...) }
func (l runLogger) Info(msg string, fields ...log.Field)  { l.Logger.Info(msg, l.with(fields)...) }
func (l runLogger) Warn(msg string, fields ...log.Field)  { l.Logger.Warn(msg, l.with(fields)...) }
func (l runLogger) Error(msg string, fields ...log.Field) { l.Logger.Error(msg, l.with(fields)...) }

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
