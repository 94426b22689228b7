package model

import "fmt"

//SyncResult holds the counters of one synchronization run.
type SyncResult struct {
	Copied  int `json:"copied" yaml:"copied"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Deleted int `json:"deleted" yaml:"deleted"`
}

//Add returns the sum of both results.
func (r SyncResult) Add(other SyncResult) SyncResult {
	return SyncResult{
		Copied:  r.Copied + other.Copied,
		Skipped: r.Skipped + other.Skipped,
		Deleted: r.Deleted + other.Deleted,
	}
}

func (r SyncResult) IsZero() bool {
	return r == SyncResult{}
}

func (r SyncResult) String() string {
	return fmt.Sprintf("%d files copied, %d files skipped, %d files/directories deleted", r.Copied, r.Skipped, r.Deleted)
}
