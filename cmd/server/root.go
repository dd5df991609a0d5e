package main

import (
	"database/sql"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"droneFlightAuthority/internal/config"
	"droneFlightAuthority/internal/db"
)

var (
	cfgFile  string
	logLevel string
	devMode  bool
	noColor  bool
)

var (
	colorOK   = color.New(color.FgGreen)
	colorInfo = color.New(color.FgCyan)
	colorWarn = color.New(color.FgYellow)
)

var rootCmd = &cobra.Command{
	Use:   "flight-authority",
	Short: "Drone flight authorization service",
	Long: `flight-authority runs the flight plan approval service: pilots submit
flight plans, organization and authority admins review them, and approved
flights are simulated with live telemetry.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file; keys match the environment variable names")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "use development defaults, including a built-in JWT secret")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(tokenCmd)
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if devMode {
		cfg, err = config.LoadWithDefaults(cfgFile)
	} else {
		cfg, err = config.Load(cfgFile)
	}
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// openDB opens the configured database and applies pending migrations.
func openDB() (*sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return d, nil
}
