package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	cfgpkg "github.com/KaramelBytes/datadash/internal/config"
	"github.com/KaramelBytes/datadash/internal/dataset"
	"github.com/KaramelBytes/datadash/internal/fetch"
	"github.com/KaramelBytes/datadash/internal/table"
)

// newDownloader is swapped in tests.
var newDownloader = func(timeout time.Duration) dataset.Downloader {
	return fetch.NewClient(timeout)
}

func httpTimeout(c *cfgpkg.Global) time.Duration {
	if c.HTTPTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

func newProvider(c *cfgpkg.Global) *dataset.Provider {
	return dataset.NewProvider(appFs, newDownloader(httpTimeout(c)), nil, dataset.WithLogger(cfgpkg.GetLogger()))
}

func datasetHandle(c *cfgpkg.Global) (*dataset.Handle, error) {
	if c.DatasetRemote() == "" {
		return nil, errors.New("no dataset configured (set dataset_id or dataset_url)")
	}
	return dataset.NewHandle(c.DatasetRemote(), c.LocalDatasetPath(), c.DatasetSHA256)
}

// modelHandle returns nil when no classifier artifact is configured.
func modelHandle(c *cfgpkg.Global) (*dataset.Handle, error) {
	if c.ModelRemote() == "" {
		return nil, nil
	}
	return dataset.NewHandle(c.ModelRemote(), c.LocalModelPath(), "")
}

// loadDataset makes sure the dataset is on disk and parses it.
func loadDataset(ctx context.Context, c *cfgpkg.Global) (*table.Table, *dataset.Handle, error) {
	h, err := datasetHandle(c)
	if err != nil {
		return nil, nil, err
	}
	p := newProvider(c)
	if err := p.EnsureLocal(ctx, h); err != nil {
		return nil, h, explain(err)
	}
	t, err := p.Load(ctx, h)
	if err != nil {
		return nil, h, explain(err)
	}
	return t, h, nil
}

// explain adds a next step to provider errors.
func explain(err error) error {
	var de *dataset.DownloadError
	if errors.As(err, &de) {
		switch de.Kind {
		case dataset.DownloadNetwork:
			return fmt.Errorf("%w (check your connection or raise --http-timeout)", err)
		case dataset.DownloadInvalidRemote:
			return fmt.Errorf("%w (use an http(s) URL or a Google Drive file id)", err)
		}
		return err
	}
	var le *dataset.LoadError
	if errors.As(err, &le) && le.Fatal {
		return fmt.Errorf("%w (the remote file itself looks broken; run 'datadash clean' and check the source)", err)
	}
	return err
}
