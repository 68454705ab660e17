package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/autosheeeew/ui-inspector/backend"
	"github.com/autosheeeew/ui-inspector/config"
	"github.com/autosheeeew/ui-inspector/utils"
)

const version = "dev"

// cfg holds the effective configuration, assembled in initConfig from the
// config file and command-line flags.
var cfg = config.Default()

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ui-inspector",
	Short: "Remote screen mirroring and UI inspection for mobile devices",
	Long:  `A gateway and CLI for mirroring mobile device screens into a browser, with coordinate reconciliation, gesture dispatch and interactive-element overlays.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func initConfig() {
	utils.SetVerbose(verbose)

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	loaded, err := config.Load(path)
	if err != nil {
		utils.Warn("failed to load config %s: %v", path, err)
	} else {
		cfg = loaded
	}

	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend base URL (overrides config file)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	// enable microseconds in logs
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return rootCmd.ExecuteContext(ctx)
}

// apiClient builds a backend client from the effective configuration.
func apiClient() *backend.Client {
	api := backend.NewClient(cfg.BackendURL)
	api.SetStreamOptions(cfg.StreamFPS, cfg.StreamQuality)
	return api
}

// printJson is a helper function to print JSON responses
func printJson(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(jsonData))
}
