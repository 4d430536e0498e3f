package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"library-api/internal/infrastructure/database"
)

var (
	// Down flags
	steps int
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *database.Migrator) error {
			applied, err := m.Up()
			for _, mig := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied  %04d_%s\n", mig.Version, mig.Name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			}
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert applied migrations",
	Long: `Revert the most recently applied migrations.

Examples:
  migrate down             # Revert the last migration
  migrate down --steps 2   # Revert the last two migrations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return withMigrator(func(m *database.Migrator) error {
			reverted, err := m.Down(steps)
			for _, mig := range reverted {
				fmt.Fprintf(cmd.OutOrStdout(), "reverted %04d_%s\n", mig.Version, mig.Name)
			}
			if err != nil {
				return err
			}
			if len(reverted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to revert")
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations are applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *database.Migrator) error {
			status, err := m.Status()
			if err != nil {
				return err
			}
			printStatus(cmd, status)
			return nil
		})
	},
}

func init() {
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to revert")
}

func printStatus(cmd *cobra.Command, status []database.MigrationStatus) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATE")
	for _, st := range status {
		state := "pending"
		if st.Applied {
			state = "applied"
		}
		fmt.Fprintf(w, "%04d\t%s\t%s\n", st.Version, st.Name, state)
	}
	_ = w.Flush()
}
