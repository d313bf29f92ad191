package dfs

import (
	"io/fs"
	"time"

	"github.com/mochivi/dfs-facade/pkg/native"
)

// EntryKind is the decoded object kind of a DirectoryEntry.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
	EntryUnknown   EntryKind = "unknown"
)

// DirectoryEntry is an immutable metadata snapshot of one filesystem object.
type DirectoryEntry struct {
	Kind        EntryKind `json:"kind" yaml:"kind"`
	Name        string    `json:"name" yaml:"name"`
	Owner       string    `json:"owner" yaml:"owner"`
	Group       string    `json:"group" yaml:"group"`
	Size        int64     `json:"size" yaml:"size"`
	Replication int16     `json:"replication" yaml:"replication"`
	BlockSize   int64     `json:"block_size" yaml:"block_size"`
	Permissions uint16    `json:"permissions" yaml:"permissions"`
	LastAccess  time.Time `json:"last_access" yaml:"last_access"`
	LastMod     time.Time `json:"last_mod" yaml:"last_mod"`
}

func (e DirectoryEntry) IsDir() bool {
	return e.Kind == EntryDirectory
}

// Mode renders the entry's kind and permission bits as an fs.FileMode.
func (e DirectoryEntry) Mode() fs.FileMode {
	mode := fs.FileMode(e.Permissions) & fs.ModePerm
	switch e.Kind {
	case EntryDirectory:
		mode |= fs.ModeDir
	case EntryUnknown:
		mode |= fs.ModeIrregular
	}
	return mode
}

func decodeKind(kind native.ObjectKind) EntryKind {
	switch kind {
	case native.KindFile:
		return EntryFile
	case native.KindDirectory:
		return EntryDirectory
	default:
		return EntryUnknown
	}
}

// decodeEntry never fails: an unrecognized kind decodes to EntryUnknown.
func decodeEntry(info *native.FileInfo) DirectoryEntry {
	return DirectoryEntry{
		Kind:        decodeKind(info.Kind),
		Name:        info.Name,
		Owner:       info.Owner,
		Group:       info.Group,
		Size:        info.Size,
		Replication: info.Replication,
		BlockSize:   info.BlockSize,
		Permissions: uint16(info.Permissions),
		LastAccess:  time.Unix(info.LastAccess, 0).UTC(),
		LastMod:     time.Unix(info.LastMod, 0).UTC(),
	}
}
