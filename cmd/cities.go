package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "List supported Legistar deployments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		citiesFile, _ := cmd.Flags().GetString("cities-file")

		registry, err := buildRegistry(citiesFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME\tTOKEN\tBASE URL")
		for _, c := range registry.All() {
			tok := "optional"
			if c.TokenRequired {
				tok = "required"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Code, c.DisplayName, tok, c.BaseURL)
		}
		return w.Flush()
	},
}

func init() {
	citiesCmd.Flags().String("cities-file", "", "YAML file with additional Legistar deployments")
	rootCmd.AddCommand(citiesCmd)
}
