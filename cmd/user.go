// cmd/user.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/markb/bazarbot/internal/db"
	"github.com/markb/bazarbot/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage bot users",
	Long:  `Commands for promoting and demoting moderators.`,
}

func openStore(cmd *cobra.Command) (*db.DB, *store.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found at %s. Run 'bazarbot init' first", dbPath)
	}
	database, err := db.New(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, store.New(database.DB), nil
}

func setRole(cmd *cobra.Command, arg, role string) error {
	telegramID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram id must be numeric, got %q", arg)
	}

	database, st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := st.SetUserRole(cmd.Context(), telegramID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with telegram id %d (they must /start the bot first)", telegramID)
		}
		return err
	}
	fmt.Printf("User %d is now %s\n", telegramID, role)
	return nil
}

var userPromoteCmd = &cobra.Command{
	Use:   "promote <telegram_id>",
	Short: "Grant a user the admin role",
	Long: `Grant moderation rights to a user.

Examples:
  bazarbot user promote 123456789`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], store.RoleAdmin)
	},
}

var userDemoteCmd = &cobra.Command{
	Use:   "demote <telegram_id>",
	Short: "Revoke a user's admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], store.RoleUser)
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userPromoteCmd)
	userCmd.AddCommand(userDemoteCmd)

	userPromoteCmd.Flags().String("db", "bazarbot.db", "Path to database file")
	userDemoteCmd.Flags().String("db", "bazarbot.db", "Path to database file")
}
