// Package namespace implements the hierarchical directory/file tree owned
// by the master (spec §4.1). A Node is a discriminated union of Directory
// and File; every traversal handles both arms explicitly rather than
// relying on an inheritance hierarchy, matching the teacher's tagged-union
// idiom used throughout this codebase's data model.
package namespace

import (
	"log/slog"
	"strings"
	"sync"

	"distfs/internal/gfs"
	"distfs/internal/logging"
)

// Status is the lifecycle state of a File node.
type Status int

const (
	Active Status = iota
	Deleted
)

func (s Status) String() string {
	if s == Active {
		return "Active"
	}
	return "Deleted"
}

// node is the tagged-union tree element. isDir discriminates the two
// shapes instead of a type switch over an interface, since both shapes
// share almost all of their handling (locking, name lookups) and a single
// struct keeps that logic in one place.
type node struct {
	name     string
	isDir    bool
	children map[string]*node // only meaningful when isDir
	status   Status           // only meaningful when !isDir
}

func newDirNode(name string) *node {
	return &node{name: name, isDir: true, children: make(map[string]*node)}
}

// Tree is the namespace tree. It is guarded by a single exclusive lock
// covering the duration of any traversal, per spec §4.1. Read-only
// operations (Ls, IsActive) take the lock in shared mode.
type Tree struct {
	mu     sync.RWMutex
	root   *node
	logger *slog.Logger
}

// New creates an empty namespace tree rooted at "/".
func New(logger *slog.Logger) *Tree {
	return &Tree{
		root:   newDirNode(""),
		logger: logging.Default(logger).With("component", "namespace"),
	}
}

// splitPath strips the leading "/" and splits on "/", rejecting empty
// components. A bare "/" splits to zero components (the root itself).
func splitPath(path string) ([]string, *gfs.Error) {
	if !strings.HasPrefix(path, "/") {
		return nil, gfs.NewError(gfs.KindInvalidPath, path)
	}
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	for _, p := range parts {
		if p == "" {
			return nil, gfs.NewError(gfs.KindInvalidPath, path)
		}
	}
	return parts, nil
}

// Mkdir walks components from root, creating missing intermediate
// directories on the way. Idempotent on existing directories.
func (t *Tree) Mkdir(path string) error {
	parts, perr := splitPath(path)
	if perr != nil {
		return perr
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := t.root
	for _, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			child = newDirNode(part)
			cur.children[part] = child
		} else if !child.isDir {
			return gfs.NewError(gfs.KindPathIsFile, path)
		}
		cur = child
	}
	return nil
}

// splitParent returns the parent directory path and the leaf component.
func splitParent(path string) (parent string, leaf string, err *gfs.Error) {
	parts, perr := splitPath(path)
	if perr != nil {
		return "", "", perr
	}
	if len(parts) == 0 {
		return "", "", gfs.NewError(gfs.KindInvalidPath, path)
	}
	leaf = parts[len(parts)-1]
	parent = "/" + strings.Join(parts[:len(parts)-1], "/")
	return parent, leaf, nil
}

// mkdirParts creates (or reuses) every intermediate directory for parts,
// returning the final directory node. Caller must hold t.mu.
func (t *Tree) mkdirParts(parts []string, path string) (*node, *gfs.Error) {
	cur := t.root
	for _, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			child = newDirNode(part)
			cur.children[part] = child
		} else if !child.isDir {
			return nil, gfs.NewError(gfs.KindPathIsFile, path)
		}
		cur = child
	}
	return cur, nil
}

// CreateFile splits path into parent and leaf, creates all missing parent
// directories, and inserts a File node with status Active. If a File
// already exists at that path it is an error (Exists) unless it is
// Deleted, in which case it is resurrected to Active — the row already
// exists in the tree pending garbage collection, so recreation is a state
// transition rather than a fresh insert (see SPEC_FULL.md).
func (t *Tree) CreateFile(path string) error {
	parts, perr := splitPath(path)
	if perr != nil {
		return perr
	}
	if len(parts) == 0 {
		return gfs.NewError(gfs.KindInvalidPath, path)
	}
	leaf := parts[len(parts)-1]

	t.mu.Lock()
	defer t.mu.Unlock()

	dir, derr := t.mkdirParts(parts[:len(parts)-1], path)
	if derr != nil {
		return derr
	}

	existing, ok := dir.children[leaf]
	if !ok {
		dir.children[leaf] = &node{name: leaf, isDir: false, status: Active}
		return nil
	}
	if existing.isDir {
		return gfs.NewError(gfs.KindPathIsFile, path)
	}
	if existing.status == Active {
		return gfs.NewError(gfs.KindExists, path)
	}
	existing.status = Active
	return nil
}

// DeleteFile walks to the leaf and marks it Deleted. Fails with NotFound
// if any component is missing, IsDirectory if the leaf is a directory.
func (t *Tree) DeleteFile(path string) error {
	parent, leaf, perr := splitParent(path)
	if perr != nil {
		return perr
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	dir, derr := t.resolveDir(parent)
	if derr != nil {
		return derr
	}
	target, ok := dir.children[leaf]
	if !ok {
		return gfs.NewError(gfs.KindNotFound, path)
	}
	if target.isDir {
		return gfs.NewError(gfs.KindIsDirectory, path)
	}
	target.status = Deleted
	return nil
}

// Ls walks to the directory and returns child names, filtering out Deleted
// files. Directories are always listed. Fails with NotDirectory if the
// target is a File.
func (t *Tree) Ls(path string) ([]string, error) {
	parts, perr := splitPath(path)
	if perr != nil {
		return nil, perr
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	cur := t.root
	for _, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			return nil, gfs.NewError(gfs.KindNotFound, path)
		}
		cur = child
	}
	if !cur.isDir {
		return nil, gfs.NewError(gfs.KindNotDirectory, path)
	}

	names := make([]string, 0, len(cur.children))
	for name, child := range cur.children {
		if !child.isDir && child.status == Deleted {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// IsActive reports whether path resolves to a File with status Active.
// A directory path is never "active" in the File sense; it returns false
// with no error rather than the undefined behavior left by the original
// source (spec §9).
func (t *Tree) IsActive(path string) (bool, error) {
	parts, perr := splitPath(path)
	if perr != nil {
		return false, perr
	}
	if len(parts) == 0 {
		return false, nil // root is a directory
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	cur := t.root
	for _, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			return false, gfs.NewError(gfs.KindNotFound, path)
		}
		cur = child
	}
	if cur.isDir {
		return false, nil
	}
	return cur.status == Active, nil
}

// resolveDir walks to a directory node. Caller must hold t.mu.
func (t *Tree) resolveDir(path string) (*node, *gfs.Error) {
	parts, perr := splitPath(path)
	if perr != nil {
		return nil, perr
	}
	cur := t.root
	for _, part := range parts {
		child, ok := cur.children[part]
		if !ok {
			return nil, gfs.NewError(gfs.KindNotFound, path)
		}
		cur = child
	}
	if !cur.isDir {
		return nil, gfs.NewError(gfs.KindNotDirectory, path)
	}
	return cur, nil
}
