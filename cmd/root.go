package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/shopwatch/internal/utils"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const version = "1.0.0"

const (
	LOGO = `	     _                                _       _
	 ___| |__   ___  _ ____      ____ _| |_ ___| |__
	/ __| '_ \ / _ \| '_ \ \ /\ / / _' | __/ __| '_ \
	\__ \ | | | (_) | |_) \ V  V / (_| | || (__| | | |
	|___/_| |_|\___/| .__/ \_/\_/ \__,_|\__\___|_| |_|
	                |_|

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "shopwatch",
	Short:   "Watches a shop catalog and reports every change.",
	Version: version,
	Long: LOGO + `shopwatch scrapes a shop page, compares its items with the last snapshot
and sends new, deleted and modified items to Slack and ntfy.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shopwatch.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: shopwatch.sqlite in CWD)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Set default empty values for all keys
	viper.SetDefault("shop_url", "")
	viper.SetDefault("slack_webhook_url", "")
	viper.SetDefault("ntfy_url", "")
	viper.SetDefault("slack_group_id", "")
	viper.SetDefault("real_prices_file", "")
	viper.SetDefault("server.username", "")
	viper.SetDefault("server.password", "")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".shopwatch")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".shopwatch.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		} else {
			fmt.Printf("Error reading config file: %s\n", err)
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
