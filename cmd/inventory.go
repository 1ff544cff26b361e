package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"siteops/pkg/inventory"
)

type inventoryOptions struct {
	Inputs       []string
	Format       string
	Mode         string
	HostVarsDir  string
	GroupVarsDir string
}

var inventoryOpts inventoryOptions

var inventoryCmd = &cobra.Command{ // nolint:gochecknoglobals
	PersistentPreRunE: validateInventoryOptions,
	Use:               "inventory",
	Short:             "Convert an inventory dump into flat listings or per-entity var files",
	SilenceUsage:      false,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := inventory.ParseFormat(inventoryOpts.Format)
		if err != nil {
			return err
		}

		tables := inventory.NewTables()
		for _, path := range inventoryOpts.Inputs {
			doc, err := inventory.Load(path, format)
			if err != nil {
				return err
			}
			for _, skipErr := range tables.Normalize(doc) {
				log.WithError(skipErr).WithField("input", path).Warn("skipped malformed inventory subtree")
			}
		}

		out := cmd.OutOrStdout()
		switch inventoryOpts.Mode {
		case "hosts":
			for _, host := range tables.Hosts {
				fmt.Fprintln(out, host)
			}
		case "groups":
			for _, group := range tables.GroupNames() {
				fmt.Fprintln(out, group)
				for _, member := range tables.Groups[group] {
					fmt.Fprintf(out, "  %s\n", member)
				}
			}
		case "hostvars":
			writer := inventory.VarWriter{Dir: inventoryOpts.HostVarsDir}
			if err := writer.WriteAll(tables.HostVars); err != nil {
				return fmt.Errorf("writing host var files: %w", err)
			}
			log.Infof("✅ Wrote var files for %d hosts to %s", len(tables.HostVars), inventoryOpts.HostVarsDir)
		case "groupvars":
			writer := inventory.VarWriter{Dir: inventoryOpts.GroupVarsDir}
			if err := writer.WriteAll(tables.GroupVars); err != nil {
				return fmt.Errorf("writing group var files: %w", err)
			}
			log.Infof("✅ Wrote var files for %d groups to %s", len(tables.GroupVars), inventoryOpts.GroupVarsDir)
		default:
			return fmt.Errorf("invalid mode %q (expected hosts, groups, hostvars or groupvars)", inventoryOpts.Mode)
		}

		return nil
	},
}

func validateInventoryOptions(cmd *cobra.Command, args []string) error {
	if err := configLogger(cmd, args); err != nil {
		return err
	}
	if len(inventoryOpts.Inputs) == 0 {
		return fmt.Errorf("at least one --input file is required")
	}
	return nil
}

func init() {
	inventoryCmd.Flags().StringSliceVarP(&inventoryOpts.Inputs, "input", "i", nil, "input data file, repeatable")
	inventoryCmd.Flags().StringVarP(&inventoryOpts.Format, "format", "t", "json", "input format (json or yaml)")
	inventoryCmd.Flags().StringVar(&inventoryOpts.Mode, "mode", "hosts", "output mode (hosts, groups, hostvars, groupvars)")
	inventoryCmd.Flags().StringVar(&inventoryOpts.HostVarsDir, "host-vars-dir", "host_vars", "directory for per-host var files")
	inventoryCmd.Flags().StringVar(&inventoryOpts.GroupVarsDir, "group-vars-dir", "group_vars", "directory for per-group var files")
}
