package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/krankdata/krank/internal/model"
	"github.com/krankdata/krank/internal/table"
)

var (
	exportVersion string
	exportAuthors bool
	exportOut     string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export a corpus table as CSV",
	Long: `Export the normalized, validated reports table of a corpus as CSV
to stdout or a file. With --authors, export the deduplicated authors
table instead.

Example:
  krank export zhang2019
  krank export zhang2019 --authors -o authors.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		corpus, err := client.Load(args[0], exportVersion)
		if err != nil {
			return err
		}

		var t *model.Table
		if exportAuthors {
			t, err = corpus.Authors(cmd.Context())
		} else {
			t, err = corpus.Reports(cmd.Context())
		}
		if err != nil {
			return err
		}

		if exportOut == "" {
			return table.WriteCSV(os.Stdout, t)
		}
		if err := table.WriteCSVFile(exportOut, t); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %d rows: %s\n", t.NumRows(), exportOut)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportVersion, "version", "", "corpus version (default: latest)")
	exportCmd.Flags().BoolVar(&exportAuthors, "authors", false, "export the authors table instead of reports")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (default: stdout)")
	rootCmd.AddCommand(exportCmd)
}
