package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/utils"
)

var (
	sumOutputPath string
	sumJSON       bool
	sumSampleRows int
	sumGroupBy    string
	sumNoGroup    bool
	sumCorr       bool
	sumOutliers   bool
	sumOutlierThr float64
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the dataset's columns as Markdown or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		t, _, err := loadDataset(cmd.Context(), c)
		if err != nil {
			return err
		}

		opt := analysis.DefaultOptions()
		if sumSampleRows > 0 {
			opt.SampleRows = sumSampleRows
		}
		if !sumNoGroup {
			opt.GroupBy = sumGroupBy
			if opt.GroupBy == "" {
				if _, err := t.Column(c.TargetColumn); err == nil {
					opt.GroupBy = c.TargetColumn
				}
			}
			opt.GroupLabels = c.TargetLabels
		}
		opt.Correlations = sumCorr
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = sumOutliers
		}
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}

		rep, err := analysis.Summarize(t, opt)
		if err != nil {
			return err
		}
		var out []byte
		if sumJSON {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
			out = append(out, '\n')
		} else {
			out = []byte(rep.Markdown())
		}

		if sumOutputPath != "" {
			if err := utils.SafeWriteFile(appFs, sumOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "write the summary to a file instead of stdout")
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "emit JSON instead of Markdown")
	summaryCmd.Flags().IntVar(&sumSampleRows, "sample-rows", 0, "leading rows to include (default 5)")
	summaryCmd.Flags().StringVar(&sumGroupBy, "group-by", "", "column to group numeric summaries by (default: target column)")
	summaryCmd.Flags().BoolVar(&sumNoGroup, "no-group", false, "skip the group-by section")
	summaryCmd.Flags().BoolVar(&sumCorr, "correlations", false, "include Pearson correlations between numeric columns")
	summaryCmd.Flags().BoolVar(&sumOutliers, "outliers", true, "count robust z-score outliers")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 0, "robust z-score threshold (default 3.5)")
}
