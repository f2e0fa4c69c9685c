package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"oj-server/core"
)

var (
	configPath string
	flushData  bool
)

var rootCmd = &cobra.Command{
	Use:   "oj-server",
	Short: "Online judge submission service",
	Long: `Online judge submission service. Accepts source-code submissions over
HTTP, judges them against the configured problems, and exposes query and
ranking endpoints.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Load .env file if it exists
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading .env file")
		}
		settings := core.LoadSettings()

		logCloser, err := core.SetupLogging(settings, "api.log")
		if err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}
		defer logCloser.Close()

		conf, err := core.LoadConf(configPath)
		if err != nil {
			return err
		}

		if flushData {
			// No persistence layer exists yet, so there is nothing to flush.
			log.Println("flush-data requested: no persisted state to discard")
		}

		store := core.NewStore(conf)
		router := core.NewRouter(conf, settings, store)

		addr := fmt.Sprintf("%s:%d", conf.Server.BindAddress, conf.Server.BindPort)
		log.Printf("starting api server on %s", addr)
		return router.Run(addr)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path of the configuration file (required)")
	rootCmd.Flags().BoolVarP(&flushData, "flush-data", "f", false, "discard persisted state on startup")
	_ = rootCmd.MarkFlagRequired("config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
