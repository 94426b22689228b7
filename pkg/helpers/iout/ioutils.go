package iout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

const tmpSuffix = ".tmp"

// ErrDirNotEmpty is returned by RemoveEmptyDir for a directory that still has entries.
var ErrDirNotEmpty = errors.New("directory not empty")

// ErrNotDir is returned by EnsureDirExists when a non-directory entry occupies the path.
var ErrNotDir = errors.New("not a directory")

//readerWithContext allows to perform a cancellable read operation.
type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func newReaderWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &readerWithContext{ctx: ctx, r: r}
}

func (r *readerWithContext) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
		return r.r.Read(p)
	}
}

//LstatIfExists returns the info about the entry at the path without following a symbolic link
//(if the filesystem supports it). A missing entry gives nil info and nil error.
func LstatIfExists(fsys afero.Fs, path string) (os.FileInfo, error) {
	var (
		info os.FileInfo
		err  error
	)
	if lstater, ok := fsys.(afero.Lstater); ok {
		info, _, err = lstater.LstatIfPossible(path)
	} else {
		info, err = fsys.Stat(path)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

//EnsureDirExists creates the directory at the path together with all missing parents.
func EnsureDirExists(ctx context.Context, fsys afero.Fs, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := LstatIfExists(fsys, path)
	if err != nil {
		return fmt.Errorf("cannot make dir: %w", err)
	}
	if info != nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("cannot make dir: %w", &fs.PathError{Op: "mkdir", Path: path, Err: ErrNotDir})
	}
	if err := fsys.MkdirAll(path, os.ModePerm); err != nil {
		return fmt.Errorf("cannot make dir: %w", err)
	}
	return nil
}

//IsErrNotDir reports whether the error was caused by a non-directory entry on the way.
func IsErrNotDir(err error) bool {
	return errors.Is(err, ErrNotDir) || errors.Is(err, syscall.ENOTDIR)
}

//RemoveFile removes a file (or a symbolic link itself). Directories are refused.
func RemoveFile(fsys afero.Fs, path string) error {
	info, err := LstatIfExists(fsys, path)
	if err != nil {
		return fmt.Errorf("cannot remove entry: %w", err)
	}
	if info != nil && info.IsDir() {
		return fmt.Errorf("cannot remove entry: %q is a directory", path)
	}
	if err := fsys.Remove(path); err != nil {
		return fmt.Errorf("cannot remove entry: %w", err)
	}
	return nil
}

//RemoveEmptyDir removes a directory only if it has no entries, it never removes recursively.
//A non-empty directory gives an error wrapping ErrDirNotEmpty.
func RemoveEmptyDir(fsys afero.Fs, path string) error {
	empty, err := afero.IsEmpty(fsys, path)
	if err != nil {
		return fmt.Errorf("cannot remove dir: %w", err)
	}
	if !empty {
		return fmt.Errorf("cannot remove dir %q: %w", path, ErrDirNotEmpty)
	}
	if err := fsys.Remove(path); err != nil {
		if isDirNotEmpty(err) { // the dir got a new entry right after the check
			return fmt.Errorf("cannot remove dir %q: %w", path, ErrDirNotEmpty)
		}
		return fmt.Errorf("cannot remove dir: %w", err)
	}
	return nil
}

// this is for cross-platformity (afraid to use syscall.ENOTEMPTY, because it seems to be unix-only)
func isDirNotEmpty(err error) bool {
	var pErr *fs.PathError
	return errors.As(err, &pErr) && pErr.Err != nil && strings.Contains(pErr.Err.Error(), ErrDirNotEmpty.Error())
}

//CopyFile copies the entry at the source path (must be a regular file) to the specified destination.
//The content goes to an exclusively created temporary sibling first, which gets the source permissions
//and modTime and then replaces the destination, so an existing destination is never written through.
func CopyFile(ctx context.Context, fsys afero.Fs, srcPath, dstPath string, perm os.FileMode, srcModTime time.Time) error {
	dir := filepath.Dir(dstPath)
	if err := fsys.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("cannot create dir: %w", err)
	}
	tmp, err := afero.TempFile(fsys, dir, "."+filepath.Base(dstPath)+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	err = copyFileContents(ctx, fsys, srcPath, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("cannot copy file: %w", err)
	}
	if err := fsys.Chmod(tmpPath, perm.Perm()); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("cannot set file permissions: %w", err)
	}
	if err := fsys.Chtimes(tmpPath, time.Now(), srcModTime); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("cannot set file modification time: %w", err)
	}
	if err := fsys.Rename(tmpPath, dstPath); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("cannot replace file: %w", err)
	}
	return nil
}

func copyFileContents(ctx context.Context, fsys afero.Fs, src string, out afero.File) error {
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer in.Close()

	if _, err = io.Copy(out, newReaderWithContext(ctx, in)); err != nil {
		return fmt.Errorf("cannot read/write file content: %w", err)
	}
	return out.Sync()
}
