package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var fetchVersion string

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <name>",
	Short: "Download and verify a corpus file",
	Long: `Download a corpus file into the local cache, verify its content
hash, run the full parse/normalize/validate pipeline, and print the
cached file path. Already-cached files are verified, not re-downloaded.

Example:
  krank fetch zhang2019
  krank fetch zhang2019 --version 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		corpus, err := client.Load(args[0], fetchVersion)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		path, err := corpus.Path(ctx)
		if err != nil {
			return err
		}
		if verbose {
			nReports, _ := corpus.NumReports(ctx)
			nAuthors, _ := corpus.NumAuthors(ctx)
			fmt.Fprintf(os.Stderr, "✓ %s: %d reports from %d authors\n", corpus.Name(), nReports, nAuthors)
		}
		fmt.Println(path)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchVersion, "version", "", "corpus version (default: latest)")
	rootCmd.AddCommand(fetchCmd)
}
