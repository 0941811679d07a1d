package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/srscore/internal/excel"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import cards from an xlsx or csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		sheet, _ := cmd.Flags().GetString("sheet")
		startRow, _ := cmd.Flags().GetInt("start-row")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := excel.DefaultImportConfig()
		cfg.FilePath = args[0]
		cfg.UserID = user
		cfg.SheetName = sheet
		cfg.StartRow = startRow

		res, err := excel.NewImporter(a.engine, a.cards, a.logger).Import(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "processed %d rows: %d created, %d updated, %d skipped\n",
			res.TotalProcessed, res.Created, res.Updated, res.Skipped)
		for _, e := range res.Errors {
			fmt.Fprintln(out, "  "+e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("user", "", "owner of the imported cards")
	importCmd.Flags().String("sheet", "", "sheet to import (default: first sheet)")
	importCmd.Flags().Int("start-row", 2, "first data row, 1-based")
	_ = importCmd.MarkFlagRequired("user")
}
