package epub

import (
	"errors"
)

var (
	// ErrUnreadablePackage means the archive could not be opened or its
	// package document could not be located or parsed.
	ErrUnreadablePackage = errors.New("epub: unreadable package")
	// ErrMissingDependency means no package backend is registered.
	ErrMissingDependency = errors.New("epub: no package backend available")
	// ErrMalformedDocument means a content document in the spine is not markup.
	ErrMalformedDocument = errors.New("epub: malformed content document")
	// ErrMissingFile means the package file does not exist on disk.
	ErrMissingFile = errors.New("epub: package file not found")

	ErrContainerNotFound = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound   = errors.New("OPF path not found in container.xml")
	ErrFileNotFound      = errors.New("file not found in archive")
)

// ErrorKind classifies an error returned by this package.
type ErrorKind string

const (
	KindNone              ErrorKind = ""
	KindMissingFile       ErrorKind = "missing_file"
	KindMissingDependency ErrorKind = "missing_dependency"
	KindUnreadablePackage ErrorKind = "unreadable_package"
	KindMalformedDocument ErrorKind = "malformed_document"
	KindOther             ErrorKind = "other"
)

// Kind returns the taxonomy entry of err.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingFile):
		return KindMissingFile
	case errors.Is(err, ErrMissingDependency):
		return KindMissingDependency
	case errors.Is(err, ErrUnreadablePackage):
		return KindUnreadablePackage
	case errors.Is(err, ErrMalformedDocument):
		return KindMalformedDocument
	default:
		return KindOther
	}
}
