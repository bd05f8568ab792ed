package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/KaramelBytes/datadash/internal/fetch"
)

// DownloadKind classifies why a download failed.
type DownloadKind string

const (
	DownloadNetwork       DownloadKind = "network"
	DownloadStatus        DownloadKind = "status"
	DownloadAccessDenied  DownloadKind = "access_denied"
	DownloadChecksum      DownloadKind = "checksum"
	DownloadInvalidRemote DownloadKind = "invalid_remote"
	DownloadFilesystem    DownloadKind = "filesystem"
)

// DownloadError reports that the remote file could not be placed at Path.
type DownloadError struct {
	Remote     string
	Path       string
	Kind       DownloadKind
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s to %s failed (%s): %v", e.Remote, e.Path, e.Kind, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// LoadError reports that the file at Path could not be parsed as a table.
// Fatal is set once the single re-download and re-parse has also failed.
type LoadError struct {
	Path   string
	Format string
	Fatal  bool
	Err    error
}

func (e *LoadError) Error() string {
	if e.Fatal {
		return fmt.Sprintf("load %s failed after re-download: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// IsDownloadFailure reports whether err is or wraps a *DownloadError.
func IsDownloadFailure(err error) bool {
	var de *DownloadError
	return errors.As(err, &de)
}

// IsLoadFailure reports whether err is or wraps a *LoadError.
func IsLoadFailure(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func newDownloadError(h *Handle, err error) *DownloadError {
	de := &DownloadError{Remote: h.Remote, Path: h.Path, Kind: DownloadFilesystem, Err: err}
	var (
		ad *fetch.AccessDeniedError
		se *fetch.StatusError
		ue *fetch.UnreachableError
		ce *fetch.ChecksumError
	)
	switch {
	case errors.As(err, &ad):
		de.Kind = DownloadAccessDenied
		if ad.Response != nil {
			de.StatusCode = ad.Response.StatusCode
		}
	case errors.As(err, &se):
		de.Kind = DownloadStatus
		de.StatusCode = se.StatusCode
	case errors.As(err, &ce):
		de.Kind = DownloadChecksum
	case errors.As(err, &ue), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		de.Kind = DownloadNetwork
	case errors.Is(err, fetch.ErrInvalidRemote):
		de.Kind = DownloadInvalidRemote
	}
	return de
}
