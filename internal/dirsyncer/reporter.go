package dirsyncer

import (
	"fmt"
	"io"
	"sync"

	"github.com/Spectre3222/incremental-backup/internal/log"
	"github.com/Spectre3222/incremental-backup/internal/model"
)

//go:generate mockgen -destination=../../generated/mocks/reporter.go -package=mocks github.com/Spectre3222/incremental-backup/internal/dirsyncer Reporter

//Reporter receives what a synchronization does besides its counters: the narration of
//performed mutations and the per-entry failures, which never abort a traversal.
type Reporter interface {
	//Action is called after a successful copy (src -> dst) or removal (dst only).
	Action(kind model.OperationKind, src, dst string)
	//Failure is called once per failed entry.
	Failure(kind model.OperationKind, path string, err error)
}

//Failure is one reported per-entry error.
type Failure struct {
	Kind model.OperationKind
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %q: %v", f.Kind, f.Path, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

type logReporter struct {
	log     log.Logger
	verbose bool
}

//NewLogReporter writes failures as errors and actions as info (verbose) or debug records.
func NewLogReporter(logger log.Logger, verbose bool) Reporter {
	return &logReporter{log: logger, verbose: verbose}
}

func (r *logReporter) Action(kind model.OperationKind, src, dst string) {
	fields := []log.Field{log.String("op", string(kind)), log.String("dst", dst)}
	if src != "" {
		fields = append(fields, log.String("src", src))
	}
	if r.verbose {
		r.log.Info("entry synchronized", fields...)
		return
	}
	r.log.Debug("entry synchronized", fields...)
}

func (r *logReporter) Failure(kind model.OperationKind, path string, err error) {
	r.log.Error("entry synchronization failed", log.String("op", string(kind)), log.String("path", path), log.Cause(err))
}

type consoleReporter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

//NewConsoleReporter prints human readable lines: failures always, actions only if verbose.
//Skipped files and symbolic links are never printed.
func NewConsoleReporter(w io.Writer, verbose bool) Reporter {
	return &consoleReporter{w: w, verbose: verbose}
}

func (r *consoleReporter) Action(kind model.OperationKind, src, dst string) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch kind {
	case model.OpKindCopy:
		fmt.Fprintf(r.w, "Copied: %s -> %s\n", src, dst)
	case model.OpKindRemove:
		fmt.Fprintf(r.w, "Deleted: %s\n", dst)
	case model.OpKindRemoveDir:
		fmt.Fprintf(r.w, "Deleted directory: %s\n", dst)
	}
}

func (r *consoleReporter) Failure(kind model.OperationKind, path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "Error: Could not %s '%s'. %v\n", failureVerb(kind), path, err)
}

func failureVerb(kind model.OperationKind) string {
	switch kind {
	case model.OpKindMkdir:
		return "create directory"
	case model.OpKindCopy:
		return "copy"
	case model.OpKindRemove:
		return "delete file"
	case model.OpKindRemoveDir:
		return "delete directory"
	case model.OpKindScan:
		return "read"
	default:
		return string(kind)
	}
}

//ErrorCollector keeps every reported failure. It is safe for concurrent use.
type ErrorCollector struct {
	mu       sync.Mutex
	failures []Failure
}

func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{}
}

func (c *ErrorCollector) Action(model.OperationKind, string, string) {}

func (c *ErrorCollector) Failure(kind model.OperationKind, path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, Failure{Kind: kind, Path: path, Err: err})
}

//Failures returns a copy of the collected failures in the reported order.
func (c *ErrorCollector) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Failure(nil), c.failures...)
}

func (c *ErrorCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

type multiReporter []Reporter

//Reporters fans every call out to all the given reporters; nil ones are ignored.
func Reporters(reporters ...Reporter) Reporter {
	m := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multiReporter) Action(kind model.OperationKind, src, dst string) {
	for _, r := range m {
		r.Action(kind, src, dst)
	}
}

func (m multiReporter) Failure(kind model.OperationKind, path string, err error) {
	for _, r := range m {
		r.Failure(kind, path, err)
	}
}
