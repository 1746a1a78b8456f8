package gfs

import (
	"errors"
	"fmt"
)

// Kind tags an Error with one of the taxonomy entries from spec §7. Kinds
// classify failures for callers (RPC layers map them to status codes);
// they are not themselves Go error types.
type Kind int

const (
	// KindUnknown is the zero value; never returned by this package.
	KindUnknown Kind = iota
	KindInvalidPath
	KindNotFound
	KindNotDirectory
	KindPathIsFile
	KindIsDirectory
	KindExists
	KindFileNotFound
	KindPlacementInsufficient
	KindUpstreamUnavailable
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindInvalidPath:
		return "InvalidPath"
	case KindNotFound:
		return "NotFound"
	case KindNotDirectory:
		return "NotDirectory"
	case KindPathIsFile:
		return "PathIsFile"
	case KindIsDirectory:
		return "IsDirectory"
	case KindExists:
		return "Exists"
	case KindFileNotFound:
		return "FileNotFound"
	case KindPlacementInsufficient:
		return "PlacementInsufficient"
	case KindUpstreamUnavailable:
		return "UpstreamUnavailable"
	case KindTransport:
		return "Transport"
	default:
		return "Unknown"
	}
}

// Error is a kind-tagged error carrying the path or handle it applies to.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a kind-tagged Error for the given path.
func NewError(kind Kind, path string) *Error {
	return &Error{Kind: kind, Path: path}
}

// Wrap builds a kind-tagged Error wrapping a lower-level cause.
func Wrap(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// Is reports whether err is a gfs.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
