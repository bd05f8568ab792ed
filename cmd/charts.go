package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadash/internal/charts"
)

var (
	chartFlags  viewFlags
	chartDir    string
	chartFormat string
	chartBins   int
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Write the target pie, sensor scatter and feature histogram as image files",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		format := c.ChartFormat
		if chartFormat != "" {
			format = chartFormat
		}
		format, err = charts.ParseFormat(format)
		if err != nil {
			return err
		}
		dir := c.ResolvePath(c.ChartsDir)
		if chartDir != "" {
			dir = chartDir
		}

		t, _, err := loadDataset(cmd.Context(), c)
		if err != nil {
			return err
		}
		v, err := buildView(c, t, chartFlags)
		if err != nil {
			return err
		}
		bins := c.HistogramBins
		if chartBins > 0 {
			bins = chartBins
		}

		type job struct {
			name  string
			build func() (charts.Renderer, error)
		}
		jobs := []job{
			{"target_pie", func() (charts.Renderer, error) {
				return charts.Pie(v.targetCounts(c), "Target distribution")
			}},
			{fmt.Sprintf("scatter_%s_%s", v.x, v.y), func() (charts.Renderer, error) {
				pts, err := v.scatter(c)
				if err != nil {
					return nil, err
				}
				return charts.Scatter(pts, v.x, v.y, fmt.Sprintf("%s vs %s", v.x, v.y))
			}},
			{"hist_" + v.feature, func() (charts.Renderer, error) {
				h, err := v.histogram(c, bins)
				if err != nil {
					return nil, err
				}
				return charts.Histogram(h, "Distribution of "+v.feature)
			}},
		}

		out := cmd.OutOrStdout()
		written := 0
		for _, j := range jobs {
			r, err := j.build()
			if errors.Is(err, charts.ErrNoData) {
				fmt.Fprintf(os.Stderr, "⚠ Warning: skipping %s: %v\n", j.name, err)
				continue
			}
			if err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			path := filepath.Join(dir, fileSafe(j.name)+"."+format)
			if err := charts.Write(appFs, path, r, format); err != nil {
				return fmt.Errorf("%s: %w", j.name, err)
			}
			fmt.Fprintf(out, "✓ Wrote %s\n", path)
			written++
		}
		if written == 0 {
			return fmt.Errorf("no charts written")
		}
		return nil
	},
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

func init() {
	rootCmd.AddCommand(chartsCmd)
	f := chartsCmd.Flags()
	f.StringVar(&chartDir, "dir", "", "output directory (default: charts_dir under data_dir)")
	f.StringVar(&chartFormat, "format", "", "png or svg (default: chart_format)")
	f.IntVar(&chartBins, "bins", 0, "histogram bins (default: histogram_bins)")
	f.BoolVar(&chartFlags.sample, "sample", false, "build charts from a seeded sample of sample_rows rows")
	f.StringVar(&chartFlags.x, "x", "", "scatter X column (default: first feature)")
	f.StringVar(&chartFlags.y, "y", "", "scatter Y column (default: second feature)")
	f.StringVar(&chartFlags.feature, "feature", "", "histogram column (default: first feature)")
}
