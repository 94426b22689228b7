package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntryInfo_ResolveOperationKinds(t *testing.T) {
	dir := PathInfo{Exists: true, IsDir: true}
	tests := []struct {
		name      string
		entry     *EntryInfo
		wantCopy  OperationKind
		wantPrune OperationKind
	}{
		{name: "new file", entry: &EntryInfo{SrcPathInfo: regular(newer)}, wantCopy: OpKindCopy, wantPrune: OpKindNone},
		{
			name:      "in sync",
			entry:     &EntryInfo{SrcPathInfo: regular(older), TargetPathInfo: regular(older)},
			wantCopy:  OpKindNone,
			wantPrune: OpKindNone,
		},
		{name: "orphan file", entry: &EntryInfo{TargetPathInfo: regular(older)}, wantCopy: OpKindNone, wantPrune: OpKindRemove},
		{name: "orphan dir", entry: &EntryInfo{TargetPathInfo: dir}, wantCopy: OpKindNone, wantPrune: OpKindRemoveDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requires := require.New(t)
			requires.Equal(tt.wantCopy, tt.entry.ResolveCopyOperationKind())
			requires.Equal(tt.wantPrune, tt.entry.ResolvePruneOperationKind())
		})
	}
}

func TestSyncResult_Add(t *testing.T) {
	requires := require.New(t)
	total := SyncResult{}.Add(SyncResult{Copied: 1, Skipped: 2}).Add(SyncResult{Skipped: 1, Deleted: 4})
	requires.Equal(SyncResult{Copied: 1, Skipped: 3, Deleted: 4}, total)
	requires.False(total.IsZero())
	requires.True(SyncResult{}.IsZero())
	requires.Equal("1 files copied, 3 files skipped, 4 files/directories deleted", total.String())
}
