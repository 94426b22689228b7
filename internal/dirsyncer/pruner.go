package dirsyncer

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Spectre3222/incremental-backup/internal/log"
	"github.com/Spectre3222/incremental-backup/internal/model"
	"github.com/Spectre3222/incremental-backup/pkg/helpers/iout"
)

//pruner runs the prune-backward pass: a post-order walk of the target tree which removes every
//entry without a source counterpart. A directory is visited only after its children have been
//pruned, so an obsolete directory is empty by the time it is removed.
type pruner struct {
	log      log.Logger
	fs       afero.Fs
	reporter Reporter
	srcRoot  string
	dstRoot  string
	deleted  int
}

func newPruner(logger log.Logger, fsys afero.Fs, reporter Reporter, srcRoot, dstRoot string) *pruner {
	return &pruner{log: logger, fs: fsys, reporter: reporter, srcRoot: srcRoot, dstRoot: dstRoot}
}

//pruneDir handles the children of the target directory at rel.
//srcIsDir tells whether the source has a real directory at rel; if not, every child is obsolete
//without looking at the source (a source path through a symbolic link must not count).
//Only a canceled context is returned as an error.
func (p *pruner) pruneDir(ctx context.Context, rel string, srcIsDir bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dstDir := filepath.Join(p.dstRoot, rel)
	if !srcIsDir {
		p.log.Debug("no source directory, pruning the whole subtree", log.String("path", dstDir))
	}

	infos, err := afero.ReadDir(p.fs, dstDir)
	if err != nil {
		p.reporter.Failure(model.OpKindScan, dstDir, err)
		return nil
	}

	entries := make([]model.EntryInfo, 0, len(infos))
	for _, info := range infos {
		childRel := filepath.Join(rel, info.Name())
		entry := model.EntryInfo{RelPath: childRel}
		entry.SetTargetPathInfo(model.NewPathInfo(filepath.Join(p.dstRoot, childRel), info))
		if srcIsDir {
			srcPath := filepath.Join(p.srcRoot, childRel)
			srcInfo, err := iout.LstatIfExists(p.fs, srcPath)
			if err != nil {
				// not knowing the source state, the entry is kept
				p.reporter.Failure(model.OpKindScan, srcPath, err)
				continue
			}
			entry.SetSrcPathInfo(model.NewPathInfo(srcPath, srcInfo))
		}
		entries = append(entries, entry)
	}

	for _, entry := range entries {
		if !entry.TargetPathInfo.IsDir {
			continue
		}
		src := entry.SrcPathInfo
		if err := p.pruneDir(ctx, entry.RelPath, src.Exists && src.IsDir && !src.IsSymlink); err != nil {
			return err
		}
	}

	// files first, then the (already pruned) subdirectories
	for _, entry := range entries {
		if !entry.TargetPathInfo.IsDir {
			p.prune(entry)
		}
	}
	for _, entry := range entries {
		if entry.TargetPathInfo.IsDir {
			p.prune(entry)
		}
	}
	return nil
}

func (p *pruner) prune(entry model.EntryInfo) {
	dstPath := entry.TargetPathInfo.FullPath
	var err error
	kind := entry.ResolvePruneOperationKind()
	switch kind {
	case model.OpKindRemove:
		err = iout.RemoveFile(p.fs, dstPath)
	case model.OpKindRemoveDir:
		// never recursive: a directory that is still not empty is reported and left in place
		err = iout.RemoveEmptyDir(p.fs, dstPath)
	default:
		return
	}
	if err != nil {
		p.reporter.Failure(kind, dstPath, err)
		return
	}
	p.deleted++
	p.reporter.Action(kind, "", dstPath)
}
