package fetch_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datadash/internal/fetch"
	"github.com/KaramelBytes/datadash/internal/fetch/fetchtest"
)

func TestResolveRemote(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1prQQkSUDcYltzPCtX5wcJmr4JbR9WPXS", want: fetch.DriveDownloadURL + "1prQQkSUDcYltzPCtX5wcJmr4JbR9WPXS"},
		{in: "https://example.com/data.parquet", want: "https://example.com/data.parquet"},
		{in: "  http://host/x  ", want: "http://host/x"},
		{in: "ftp://host/x", wantErr: true},
		{in: "", wantErr: true},
		{in: "short", wantErr: true},
	}
	for _, tt := range tests {
		got, err := fetch.ResolveRemote(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, fetch.ErrInvalidRemote, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestDownloadWritesFileAtomically(t *testing.T) {
	body := bytes.Repeat([]byte("sensor"), 1000)
	srv := fetchtest.Sequence(t, fetchtest.Bytes(body))
	fs := afero.NewMemMapFs()

	res, err := fetch.NewClient(5*time.Second).Download(context.Background(), fs, srv.URL+"/d.parquet", "/cache/d.parquet", "")
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), res.Bytes)

	got, err := afero.ReadFile(fs, "/cache/d.parquet")
	require.NoError(t, err)
	assert.Equal(t, body, got)

	sum := sha256.Sum256(body)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.SHA256)

	entries, err := afero.ReadDir(fs, "/cache")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestDownloadChecksum(t *testing.T) {
	body := []byte("payload")
	sum := sha256.Sum256(body)
	srv := fetchtest.Sequence(t, fetchtest.Bytes(body))
	fs := afero.NewMemMapFs()
	c := fetch.NewClient(5 * time.Second)

	_, err := c.Download(context.Background(), fs, srv.URL, "/c/ok.bin", hex.EncodeToString(sum[:]))
	require.NoError(t, err)

	_, err = c.Download(context.Background(), fs, srv.URL, "/c/bad.bin", "00ff")
	var ce *fetch.ChecksumError
	require.True(t, errors.As(err, &ce))
	exists, _ := afero.Exists(fs, "/c/bad.bin")
	assert.False(t, exists)
}

func TestDownloadClassifiesFailures(t *testing.T) {
	t.Run("Forbidden", func(t *testing.T) {
		srv := fetchtest.Sequence(t, fetchtest.Response{Status: http.StatusForbidden, Body: []byte("nope")})
		_, err := fetch.NewClient(time.Second).Download(context.Background(), afero.NewMemMapFs(), srv.URL, "/x", "")
		var ad *fetch.AccessDeniedError
		require.True(t, errors.As(err, &ad))
		var se *fetch.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusForbidden, se.StatusCode)
	})

	t.Run("HTMLInterstitial", func(t *testing.T) {
		srv := fetchtest.Sequence(t, fetchtest.Response{ContentType: "text/html; charset=utf-8", Body: []byte("<html>")})
		fs := afero.NewMemMapFs()
		_, err := fetch.NewClient(time.Second).Download(context.Background(), fs, srv.URL, "/x", "")
		var ad *fetch.AccessDeniedError
		require.True(t, errors.As(err, &ad))
		exists, _ := afero.Exists(fs, "/x")
		assert.False(t, exists)
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := fetchtest.Sequence(t, fetchtest.Response{Status: http.StatusNotFound})
		_, err := fetch.NewClient(time.Second).Download(context.Background(), afero.NewMemMapFs(), srv.URL, "/x", "")
		var se *fetch.StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := fetchtest.Sequence(t, fetchtest.Bytes(nil))
		url := srv.URL
		srv.Close()
		_, err := fetch.NewClient(time.Second).Download(context.Background(), afero.NewMemMapFs(), url, "/x", "")
		var ue *fetch.UnreachableError
		require.True(t, errors.As(err, &ue))
	})
}

func TestFileSHA256(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f", []byte("abc"), 0o644))
	got, err := fetch.FileSHA256(fs, "/f")
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", got)
}
