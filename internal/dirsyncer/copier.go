package dirsyncer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Spectre3222/incremental-backup/internal/log"
	"github.com/Spectre3222/incremental-backup/internal/model"
	"github.com/Spectre3222/incremental-backup/pkg/helpers/iout"
)

//copier runs the copy-forward pass: a top-down walk of the source tree which creates missing
//target directories and copies every regular file that is absent from the target or newer there.
type copier struct {
	log      log.Logger
	fs       afero.Fs
	reporter Reporter
	srcRoot  string
	dstRoot  string
	result   model.SyncResult
}

func newCopier(logger log.Logger, fsys afero.Fs, reporter Reporter, srcRoot, dstRoot string) *copier {
	return &copier{log: logger, fs: fsys, reporter: reporter, srcRoot: srcRoot, dstRoot: dstRoot}
}

//copyDir handles the directory at rel and everything below it.
//Only a canceled context is returned as an error.
func (c *copier) copyDir(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	srcDir := filepath.Join(c.srcRoot, rel)
	dstDir := filepath.Join(c.dstRoot, rel)

	if rel != "." { // the root has been ensured already
		if err := iout.EnsureDirExists(ctx, c.fs, dstDir); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// the whole subtree is skipped for this run
			if iout.IsErrNotDir(err) {
				c.log.Debug("target entry is not a directory, it is pruned in this run", log.String("path", dstDir))
			}
			c.reporter.Failure(model.OpKindMkdir, dstDir, err)
			return nil
		}
	}

	entries, err := afero.ReadDir(c.fs, srcDir)
	if err != nil {
		c.reporter.Failure(model.OpKindScan, srcDir, err)
		return nil
	}

	var subdirs []string
	for _, info := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		childRel := filepath.Join(rel, info.Name())
		if info.IsDir() { // entries are not resolved, so a link to a dir is not a dir here
			subdirs = append(subdirs, childRel)
			continue
		}
		c.copyFile(ctx, childRel, info)
	}

	for _, childRel := range subdirs {
		if err := c.copyDir(ctx, childRel); err != nil {
			return err
		}
	}
	return nil
}

func (c *copier) copyFile(ctx context.Context, rel string, srcInfo os.FileInfo) {
	srcPath := filepath.Join(c.srcRoot, rel)
	dstPath := filepath.Join(c.dstRoot, rel)

	entry := model.EntryInfo{RelPath: rel}
	entry.SetSrcPathInfo(model.NewPathInfo(srcPath, srcInfo))
	if !entry.IsCopyable() {
		// symbolic links and special files are neither copied nor counted
		c.log.Debug("non-regular entry skipped", log.String("path", srcPath), log.String("mode", srcInfo.Mode().String()))
		return
	}

	dstInfo, err := iout.LstatIfExists(c.fs, dstPath)
	if err != nil {
		c.reporter.Failure(model.OpKindCopy, dstPath, err)
		return
	}
	entry.SetTargetPathInfo(model.NewPathInfo(dstPath, dstInfo))

	if entry.ResolveCopyOperationKind() != model.OpKindCopy {
		c.result.Skipped++
		return
	}

	if err := iout.CopyFile(ctx, c.fs, srcPath, dstPath, srcInfo.Mode(), srcInfo.ModTime()); err != nil {
		if ctx.Err() != nil {
			return
		}
		c.reporter.Failure(model.OpKindCopy, srcPath, err)
		return
	}
	c.result.Copied++
	c.reporter.Action(model.OpKindCopy, srcPath, dstPath)
}
