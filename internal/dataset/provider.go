package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/KaramelBytes/datadash/internal/fetch"
	"github.com/KaramelBytes/datadash/internal/table"
)

// maxRecoveries bounds how many delete/re-download/re-parse cycles a single
// Load may run.
const maxRecoveries = 1

// Downloader places a remote file at a local path.
type Downloader interface {
	Download(ctx context.Context, fs afero.Fs, remote, dest, wantSHA256 string) (*fetch.Result, error)
}

// Provider guarantees a local copy of a dataset and loads it once.
type Provider struct {
	fs    afero.Fs
	dl    Downloader
	cache *Cache
	log   zerolog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for state transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Provider) { p.log = l.With().Str("component", "dataset").Logger() }
}

// NewProvider wires a provider. A nil cache gets a fresh one.
func NewProvider(fs afero.Fs, dl Downloader, cache *Cache, opts ...Option) *Provider {
	if cache == nil {
		cache = NewCache()
	}
	p := &Provider{fs: fs, dl: dl, cache: cache, log: zerolog.Nop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Cache returns the provider's memoization cache.
func (p *Provider) Cache() *Cache { return p.cache }

// Exists reports whether the handle's local file is present.
func (p *Provider) Exists(h *Handle) (bool, error) {
	return afero.Exists(p.fs, h.Path)
}

// EnsureLocal downloads the remote file unless something already exists at
// the local path. An existing file is not inspected.
func (p *Provider) EnsureLocal(ctx context.Context, h *Handle) error {
	exists, err := p.Exists(h)
	if err != nil {
		return &DownloadError{Remote: h.Remote, Path: h.Path, Kind: DownloadFilesystem, Err: err}
	}
	if exists {
		if h.State() == StateAbsent {
			p.transition(h, StatePresentUnvalidated)
		}
		p.log.Debug().Str("path", h.Path).Msg("local copy present, skipping download")
		return nil
	}

	p.transition(h, StateDownloading)
	res, err := p.dl.Download(ctx, p.fs, h.Remote, h.Path, h.SHA256)
	if err != nil {
		p.transition(h, StateAbsent)
		de := newDownloadError(h, err)
		p.log.Error().Err(err).Str("path", h.Path).Str("kind", string(de.Kind)).Msg("download failed")
		return de
	}
	p.transition(h, StatePresentUnvalidated)
	p.log.Info().
		Str("path", h.Path).
		Str("url", res.URL).
		Int64("bytes", res.Bytes).
		Str("sha256", res.SHA256).
		Msg("downloaded dataset")
	return nil
}

// Load returns the table at the handle's path, parsing it on first use and
// serving the cached instance afterwards. An unreadable file is deleted,
// downloaded again and parsed once more; a second failure is returned as a
// fatal *LoadError.
func (p *Provider) Load(ctx context.Context, h *Handle) (*table.Table, error) {
	if t, ok := p.cache.Get(h.Path); ok {
		return t, nil
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := p.parse(h)
		if err == nil {
			p.cache.Put(h.Path, t)
			p.transition(h, StateLoaded)
			p.log.Info().Str("path", h.Path).Int("rows", t.Rows()).Int("cols", t.NumCols()).Msg("dataset loaded")
			return t, nil
		}
		lerr := &LoadError{Path: h.Path, Format: formatOf(h.Path), Err: err}
		if attempt >= maxRecoveries {
			lerr.Fatal = true
			p.transition(h, StateFailed)
			p.log.Error().Err(err).Str("path", h.Path).Msg("dataset unreadable after re-download")
			return nil, lerr
		}

		p.transition(h, StateCorrupt)
		p.log.Warn().Err(err).Str("path", h.Path).Msg("dataset unreadable, deleting and downloading again")
		if rmErr := p.fs.Remove(h.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			lerr.Fatal = true
			lerr.Err = fmt.Errorf("remove unreadable file: %w", rmErr)
			p.transition(h, StateFailed)
			return nil, lerr
		}
		if err := p.EnsureLocal(ctx, h); err != nil {
			return nil, err
		}
	}
}

// Remove deletes the local file and forgets any cached table for it.
func (p *Provider) Remove(h *Handle) error {
	p.cache.Forget(h.Path)
	if err := p.fs.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", h.Path, err)
	}
	p.transition(h, StateAbsent)
	return nil
}

func (p *Provider) parse(h *Handle) (*table.Table, error) {
	if h.SHA256 != "" {
		got, err := fetch.FileSHA256(p.fs, h.Path)
		if err != nil {
			return nil, err
		}
		if got != h.SHA256 {
			return nil, &fetch.ChecksumError{Path: h.Path, Want: h.SHA256, Got: got}
		}
	}
	return table.ReadFile(p.fs, h.Path)
}

func (p *Provider) transition(h *Handle, to State) {
	from := h.State()
	h.state = to
	if from != to {
		p.log.Debug().Str("path", h.Path).Str("from", string(from)).Str("to", string(to)).Msg("state")
	}
}

func formatOf(path string) string {
	r, err := table.ReaderFor(path)
	if err != nil {
		return "unknown"
	}
	return r.Format()
}
