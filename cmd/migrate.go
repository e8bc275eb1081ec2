// cmd/migrate.go
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markb/bazarbot/internal/db"
	"github.com/markb/bazarbot/internal/migration"
	"github.com/markb/bazarbot/internal/migrations"
)

// openRunner opens the database named by the --db flag and builds a runner
// over the registered migration units.
func openRunner(cmd *cobra.Command) (*db.DB, *migration.Runner, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found at %s (run 'bazarbot init' first)", dbPath)
	}
	database, err := db.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	repo, err := migration.NewRepository(migrations.All())
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, migration.NewRunner(database.DB, repo), nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long: `Apply every registered migration that is not yet recorded in the ledger,
in identifier order. Each migration runs in its own transaction; the first
failure stops the run and leaves earlier migrations applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, runner, err := openRunner(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		applied, err := runner.Migrate(cmd.Context())
		for _, id := range applied {
			fmt.Printf("applied %s\n", id)
		}
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("nothing to apply")
		}
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback [count]",
	Short: "Revert applied migrations",
	Long: `Revert the most recently applied migrations, newest first. Count defaults
to 1 and is clamped to the number of applied migrations.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("count must be a positive integer, got %q", args[0])
			}
			count = n
		}

		database, runner, err := openRunner(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		reverted, err := runner.Rollback(cmd.Context(), count)
		for _, id := range reverted {
			fmt.Printf("reverted %s\n", id)
		}
		if err != nil {
			return err
		}
		if len(reverted) == 0 {
			fmt.Println("nothing to revert")
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `List every known migration, ascending, with its applied or pending state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, runner, err := openRunner(cmd)
		if err != nil {
			return err
		}
		defer database.Close()

		statuses, err := runner.Status(cmd.Context())
		if err != nil {
			return err
		}
		if len(statuses) == 0 {
			fmt.Println("no migrations registered")
			return nil
		}

		fmt.Printf("%-40s %s\n", "IDENTIFIER", "STATUS")
		fmt.Println(strings.Repeat("-", 62))
		applied := 0
		for _, st := range statuses {
			state := "pending"
			switch {
			case st.Missing:
				state = "applied (unit missing!)"
				applied++
			case st.Applied:
				state = "applied " + st.AppliedAt.Format("2006-01-02 15:04")
				applied++
			}
			fmt.Printf("%-40s %s\n", st.Identifier, state)
		}
		fmt.Println(strings.Repeat("-", 62))
		fmt.Printf("%d applied, %d pending\n", applied, len(statuses)-applied)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Scaffold a new migration unit",
	Long: `Create a new migration source file in the migrations package, named by
the current timestamp plus the given slug.

The slug should be a short description in snake_case.

Examples:
  bazarbot create add_view_counter
  bazarbot create create_payments_table`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("migrations-dir")
		identifier, path, err := migration.NewScaffolder(dir).Create(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("created %s at %s\n", identifier, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(createCmd)

	for _, c := range []*cobra.Command{migrateCmd, rollbackCmd, statusCmd} {
		c.Flags().String("db", "bazarbot.db", "Path to database file")
	}
	createCmd.Flags().String("migrations-dir", "./internal/migrations", "Directory for migration unit files")
}
