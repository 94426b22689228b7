package model

import (
	"os"
	"time"
)

//PathInfo holds info about one dir entry in a file tree (of either source OR target directory).
//It is always taken without following symbolic links.
type PathInfo struct {
	Exists    bool
	FullPath  string
	IsDir     bool
	IsSymlink bool
	IsRegular bool
	ModTime   time.Time
}

//NewPathInfo converts an lstat result into PathInfo. A nil info means that the entry does not exist.
func NewPathInfo(fullPath string, info os.FileInfo) PathInfo {
	if info == nil {
		return PathInfo{FullPath: fullPath}
	}
	mode := info.Mode()
	return PathInfo{
		Exists:    true,
		FullPath:  fullPath,
		IsDir:     mode.IsDir(),
		IsSymlink: mode&os.ModeSymlink != 0,
		IsRegular: mode.IsRegular(),
		ModTime:   info.ModTime(),
	}
}

//EntryInfo holds info about same dir entry in BOTH file trees (source and target).
type EntryInfo struct {
	RelPath                     string
	SrcPathInfo, TargetPathInfo PathInfo
}

//SetSrcPathInfo is a convenience setter for the tree walks.
func (e *EntryInfo) SetSrcPathInfo(pi PathInfo) {
	e.SrcPathInfo = pi
}

//SetTargetPathInfo is a convenience setter for the tree walks.
func (e *EntryInfo) SetTargetPathInfo(pi PathInfo) {
	e.TargetPathInfo = pi
}

//IsCopyable reports whether the source entry is content that may be copied to the target.
//Symbolic links and special files (pipes, sockets, devices) never are.
func (e *EntryInfo) IsCopyable() bool {
	src := e.SrcPathInfo
	return src.Exists && src.IsRegular && !src.IsSymlink
}

//IsCopyRequired decides the copy-forward step for a copyable source file:
//the target is missing (or is not a regular file), or the source is strictly newer.
//Equal modification times mean the entry is already in sync.
func (e *EntryInfo) IsCopyRequired() bool {
	if !e.IsCopyable() {
		return false
	}
	dst := e.TargetPathInfo
	if !dst.Exists || !dst.IsRegular {
		return true
	}
	return e.SrcPathInfo.ModTime.After(dst.ModTime)
}

//IsObsolete decides the prune-backward step for an existing target entry.
//A target directory survives only if the source has a directory at the same path,
//any other target entry survives only if the source has a copyable file there.
func (e *EntryInfo) IsObsolete() bool {
	if !e.TargetPathInfo.Exists {
		return false
	}
	src := e.SrcPathInfo
	if e.TargetPathInfo.IsDir {
		return !(src.Exists && src.IsDir && !src.IsSymlink)
	}
	return !e.IsCopyable()
}
