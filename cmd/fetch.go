package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var fetchWithModel bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the dataset unless a local copy already exists",
	Long: `Download the configured dataset (and, with --with-model, the classifier
artifact) into the data directory. Files that already exist are left untouched;
run 'datadash clean' first to force a fresh copy.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		ds, err := datasetHandle(c)
		if err != nil {
			return err
		}
		model, err := modelHandle(c)
		if err != nil {
			return err
		}
		if fetchWithModel && model == nil {
			return fmt.Errorf("--with-model: no model configured (set model_id or model_url)")
		}

		p := newProvider(c)
		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error { return explain(p.EnsureLocal(ctx, ds)) })
		if fetchWithModel {
			g.Go(func() error { return explain(p.EnsureLocal(ctx, model)) })
		}
		if err := g.Wait(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Dataset ready at %s\n", ds.Path)
		if fetchWithModel {
			fmt.Fprintf(out, "✓ Model ready at %s\n", model.Path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchWithModel, "with-model", false, "also download the classifier artifact")
}
