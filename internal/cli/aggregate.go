package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/krankdata/krank/internal/table"
)

var aggregateOut string

// aggregateCmd represents the aggregate command
var aggregateCmd = &cobra.Command{
	Use:   "aggregate [name...]",
	Short: "Build the cross-corpus aggregate table",
	Long: `Concatenate corpora into one table with exactly the columns
corpus, author, and report, validated under the strict aggregate
contract. With no names, every corpus in the registry is included.
Corpora are fetched and parsed in parallel.

Example:
  krank aggregate -o aggregate.csv
  krank aggregate zhang2019 samson2023 --concurrency 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		merged, err := client.Aggregate(cmd.Context(), args)
		if err != nil {
			return err
		}

		if aggregateOut == "" {
			return table.WriteCSV(os.Stdout, merged)
		}
		if err := table.WriteCSVFile(aggregateOut, merged); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote %d rows: %s\n", merged.NumRows(), aggregateOut)
		}
		return nil
	},
}

func init() {
	aggregateCmd.Flags().StringVarP(&aggregateOut, "output", "o", "", "output file (default: stdout)")
	aggregateCmd.Flags().Int("concurrency", 0, "parallel corpus loads (default: number of CPUs)")
	_ = viper.BindPFlag("aggregate.concurrency", aggregateCmd.Flags().Lookup("concurrency"))
	rootCmd.AddCommand(aggregateCmd)
}
