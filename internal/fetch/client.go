package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// DriveDownloadURL is the direct-download endpoint for Google Drive file ids.
const DriveDownloadURL = "https://drive.google.com/uc?export=download&id="

var driveID = regexp.MustCompile(`^[A-Za-z0-9_-]{10,}$`)

// ErrInvalidRemote is returned for identifiers that cannot be turned into a URL.
var ErrInvalidRemote = errors.New("invalid remote identifier")

// ResolveRemote turns a remote identifier into a URL. Identifiers are either
// an http(s) URL or a bare Google Drive file id.
func ResolveRemote(remote string) (string, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidRemote)
	}
	if strings.Contains(remote, "://") {
		u, err := url.Parse(remote)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidRemote, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRemote, u.Scheme)
		}
		return u.String(), nil
	}
	if driveID.MatchString(remote) {
		return DriveDownloadURL + remote, nil
	}
	return "", fmt.Errorf("%w: %q is neither a URL nor a Drive file id", ErrInvalidRemote, remote)
}

// Client streams remote files over HTTP(S).
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// Result describes a completed download.
type Result struct {
	URL    string
	Path   string
	Bytes  int64
	SHA256 string
}

// NewClient returns a client. timeout <= 0 means no overall deadline; the
// caller's context still applies.
func NewClient(timeout time.Duration) *Client {
	if timeout < 0 {
		timeout = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "datadash-cli",
	}
}

// Get streams the body at rawURL into w and returns the number of bytes copied.
func (c *Client) Get(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, &UnreachableError{Host: req.URL.Host, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		se := &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(b))}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return 0, &AccessDeniedError{URL: rawURL, Reason: resp.Status, Response: se}
		}
		return 0, se
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "text/html" {
		return 0, &AccessDeniedError{URL: rawURL, Reason: "server returned an HTML page instead of the file"}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, &UnreachableError{Host: req.URL.Host, Err: fmt.Errorf("body interrupted after %d bytes: %w", n, err)}
	}
	return n, nil
}

// Download fetches remote into dest on fs. Bytes land in a uniquely named
// sibling temp file that is renamed into place only after the body is
// complete and, when wantSHA256 is set, its digest matches.
func (c *Client) Download(ctx context.Context, fs afero.Fs, remote, dest, wantSHA256 string) (*Result, error) {
	u, err := ResolveRemote(remote)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := dest + ".part-" + uuid.NewString()
	f, err := fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	h := sha256.New()
	n, err := c.Get(ctx, u, io.MultiWriter(f, h))
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close temp file: %w", cerr)
	}
	if err != nil {
		_ = fs.Remove(tmp)
		return nil, err
	}
	sum := hex.EncodeToString(h.Sum(nil))
	if wantSHA256 != "" && !strings.EqualFold(strings.TrimSpace(wantSHA256), sum) {
		_ = fs.Remove(tmp)
		return nil, &ChecksumError{Path: dest, Want: strings.ToLower(wantSHA256), Got: sum}
	}
	if err := fs.Rename(tmp, dest); err != nil {
		_ = fs.Remove(tmp)
		return nil, fmt.Errorf("move into place: %w", err)
	}
	return &Result{URL: u, Path: dest, Bytes: n, SHA256: sum}, nil
}

// FileSHA256 hashes the file at path on fs.
func FileSHA256(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
