// Package dataset keeps a local copy of a remotely hosted table file and
// loads it once per process.
//
// A Handle pairs a remote identifier (URL or Google Drive file id) with a
// local path. Provider.EnsureLocal downloads the file only when the path is
// empty; Provider.Load parses it, memoizes the result in a Cache and, when
// the file turns out to be unreadable, deletes it, downloads it again and
// parses it one more time before giving up.
package dataset

import (
	"errors"
	"path/filepath"
	"strings"
)

// State is the lifecycle position of a Handle's local file.
type State string

const (
	StateAbsent             State = "absent"
	StateDownloading        State = "downloading"
	StatePresentUnvalidated State = "present_unvalidated"
	StateLoaded             State = "loaded"
	StateCorrupt            State = "corrupt"
	StateFailed             State = "failed"
)

// Handle identifies one dataset: where it comes from and where it lives.
type Handle struct {
	Remote string
	Path   string
	// SHA256, when set, is the expected hex digest of the file.
	SHA256 string

	state State
}

// NewHandle builds a Handle. The path is cleaned so cache keys are stable.
func NewHandle(remote, path, sha256 string) (*Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("dataset path is empty")
	}
	return &Handle{
		Remote: strings.TrimSpace(remote),
		Path:   filepath.Clean(path),
		SHA256: strings.ToLower(strings.TrimSpace(sha256)),
		state:  StateAbsent,
	}, nil
}

// State returns the last observed state of the local file.
func (h *Handle) State() State {
	if h.state == "" {
		return StateAbsent
	}
	return h.state
}
