package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is matched by every UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported model format")
	// ErrAssetLoad is matched by every AssetLoadError.
	ErrAssetLoad = errors.New("asset load failed")
)

// UnsupportedFormatError is returned before any I/O when a path's extension maps to no backend.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("loader: %s has no extension: %v", e.Path, ErrUnsupportedFormat)
	}
	return fmt.Sprintf("loader: %s: %v %q", e.Path, ErrUnsupportedFormat, e.Ext)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// AssetLoadError wraps a read or parse failure of a supported file.
type AssetLoadError struct {
	Path  string
	Cause error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("loader: load %s: %v", e.Path, e.Cause)
}

func (e *AssetLoadError) Unwrap() []error {
	return []error{ErrAssetLoad, e.Cause}
}
