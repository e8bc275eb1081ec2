// cmd/init.go
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markb/bazarbot/internal/db"
	"github.com/markb/bazarbot/internal/migration"
	"github.com/markb/bazarbot/internal/migrations"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new bazarbot database",
	Long:  `Creates the SQLite database and applies all registered migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")

		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("database already exists at %s", dbPath)
		}

		database, err := db.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer database.Close()

		repo, err := migration.NewRepository(migrations.All())
		if err != nil {
			return err
		}
		applied, err := migration.NewRunner(database.DB, repo).Migrate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Initialized database at %s (%d migrations applied)\n", dbPath, len(applied))

		if os.Getenv("BAZARBOT_TOKEN") == "" && term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Print("Bot token (from @BotFather, leave empty to configure later): ")
			tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read token: %w", err)
			}
			if token := strings.TrimSpace(string(tokenBytes)); token != "" {
				fmt.Println("Add this to your environment before running 'bazarbot serve':")
				fmt.Printf("  export BAZARBOT_TOKEN=%s\n", token)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("db", "bazarbot.db", "Path to database file")
}
