package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanModel bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the local dataset copy so the next command downloads it again",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		p := newProvider(c)
		ds, err := datasetHandle(c)
		if err != nil {
			return err
		}
		if err := p.Remove(ds); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", ds.Path)

		if !cleanModel {
			return nil
		}
		model, err := modelHandle(c)
		if err != nil {
			return err
		}
		if model == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No model configured")
			return nil
		}
		if err := p.Remove(model); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s\n", model.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanModel, "model", false, "also delete the classifier artifact")
}
