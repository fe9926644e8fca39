package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCollections bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available corpora",
	Long: `List the corpus names known to the registry, alphabetically.

With --collections, list collection names instead.

Example:
  krank list
  krank list --collections`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		names := client.ListCorpora()
		if listCollections {
			names = client.ListCollections()
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// versionsCmd represents the versions command
var versionsCmd = &cobra.Command{
	Use:   "versions <name>",
	Short: "List available versions for a corpus",
	Long: `List the version identifiers of a corpus, oldest first.

Example:
  krank versions zhang2019`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		versions, err := client.ListVersions(args[0])
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listCollections, "collections", false, "list collections instead of corpora")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionsCmd)
}
