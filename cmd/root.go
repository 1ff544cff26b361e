package cmd

import (
	"fmt"
	"os"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	LogLevel string
	CfgFile  string
}

var config = Config{LogLevel: "info"}

var rootCmd = &cobra.Command{ // nolint:gochecknoglobals
	PersistentPreRunE: configLogger,
	Use:               "siteops",
	Short:             "CLI to convert inventory dumps and health-check site catalogs",
	SilenceUsage:      false,
}

func configLogger(cmd *cobra.Command, args []string) error {
	lvl, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		return fmt.Errorf("incorrect log level %q", config.LogLevel)
	}

	log.SetLevel(lvl)
	log.WithField("log-level", lvl).Debug("log level configured")

	return nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their equivalent
		// keys with underscores, e.g. --log-level to SITEOPS_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

			err := v.BindEnv(f.Name, fmt.Sprintf("%s_%s", "SITEOPS", envVarSuffix))
			if err != nil {
				log.Fatal(err)
				os.Exit(-1)
			}
		}

		// Apply the viper config value to the flag when the flag is not set and viper has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)

			err := cmd.PersistentFlags().Set(f.Name, fmt.Sprintf("%v", val))
			if err != nil {
				log.Fatal(err)
				os.Exit(-1)
			}
		}
	})
}

func init() {
	v := readConfigFile()

	rootCmd.PersistentFlags().StringVar(&config.LogLevel, "log-level",
		"info", "set log level verbosity (options: debug, info, error, warning)")

	rootCmd.PersistentFlags().StringVar(&config.CfgFile, "config", "", "config file "+
		"(default is ./siteops.yaml)")

	bindFlags(rootCmd, v)
}

func readConfigFile() *viper.Viper {
	v := viper.New()
	if config.CfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(config.CfgFile)
	} else {
		// Find current directory.
		currentDir := path.Dir("")

		// Search config in current directory with name (without extension).
		v.AddConfigPath(currentDir)
		v.SetConfigType("yaml")
		v.SetConfigName("siteops")
	}

	// Attempt to read the config file, gracefully ignoring errors
	// caused by a config file not being found. Return an error
	// if we cannot parse the config file.
	if err := v.ReadInConfig(); err != nil {
		// It's okay if there isn't a config file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Info(err)
		}
	}

	v.SetEnvPrefix("SITEOPS")

	// Bind to environment variables
	// Works great for simple config names, but needs help for names
	// like --log-level which we fix in the bindFlags function
	v.AutomaticEnv()

	return v
}

func Execute() error {
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
	return rootCmd.Execute()
}
