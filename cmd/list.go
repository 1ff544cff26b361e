package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"siteops/pkg/catalog"
)

var listAll bool

var listCmd = &cobra.Command{ // nolint:gochecknoglobals
	PersistentPreRunE: configLogger,
	Use:               "list",
	Short:             "List the catalog's sites, or every site-environment pair with --all",
	SilenceUsage:      false,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(checkOpts.File)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, site := range cat.SiteNames() {
			if !listAll {
				fmt.Fprintln(out, site)
				continue
			}
			for _, tag := range cat.EnvTags(site) {
				fmt.Fprintf(out, "%s-%s\n", site, tag)
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "list every site-environment pair")
	listCmd.Flags().StringVarP(&checkOpts.File, "file", "f", "sites.yml", "site data file")
}
