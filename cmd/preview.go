package cmd

import (
	"encoding/csv"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	previewRows int
	previewCSV  bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the first rows of the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		n := c.PreviewRows
		if cmd.Flags().Changed("rows") {
			n = previewRows
		}
		if n <= 0 {
			return fmt.Errorf("--rows must be positive")
		}
		t, _, err := loadDataset(cmd.Context(), c)
		if err != nil {
			return err
		}
		head := t.Head(n)

		out := cmd.OutOrStdout()
		if previewCSV {
			w := csv.NewWriter(out)
			if err := w.Write(head.ColumnNames()); err != nil {
				return err
			}
			for i := 0; i < head.Rows(); i++ {
				if err := w.Write(head.Row(i)); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		}

		rows := make([][]string, head.Rows())
		for i := range rows {
			rows[i] = head.Row(i)
		}
		tbl := ltable.New().
			Border(lipgloss.NormalBorder()).
			Headers(head.ColumnNames()...).
			Rows(rows...)
		fmt.Fprintln(out, tbl.String())
		fmt.Fprintf(out, "%d of %d rows\n", head.Rows(), t.Rows())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntVarP(&previewRows, "rows", "n", 0, "number of rows (default: preview_rows)")
	previewCmd.Flags().BoolVar(&previewCSV, "csv", false, "print CSV instead of a table")
}
