package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoVersion string

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show corpus metadata",
	Long: `Show the registry metadata of a corpus: title, description,
environment, probe, version, DOI, and citations. No data is downloaded.

Example:
  krank info zhang2019
  krank info zhang2019 --version 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		corpus, err := client.Load(args[0], infoVersion)
		if err != nil {
			return err
		}
		fmt.Print(corpus.Summary())
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoVersion, "version", "", "corpus version (default: latest)")
	rootCmd.AddCommand(infoCmd)
}
