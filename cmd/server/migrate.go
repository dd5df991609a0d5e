package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"droneFlightAuthority/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and print the schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()
		v, err := db.Version(d)
		if err != nil {
			return err
		}
		colorOK.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
		return nil
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Revert the most recently applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDB()
		if err != nil {
			return err
		}
		defer d.Close()
		if err := db.RollbackLast(d); err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		v, err := db.Version(d)
		if err != nil {
			return err
		}
		colorWarn.Fprintf(cmd.OutOrStdout(), "rolled back; schema at version %d\n", v)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateRollbackCmd)
}
