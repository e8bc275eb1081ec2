// cmd/webhook.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/markb/bazarbot/internal/telegram"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
}

func botClient() (*telegram.Client, error) {
	token := os.Getenv("BAZARBOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BAZARBOT_TOKEN is required")
	}
	return telegram.NewClient(token), nil
}

var webhookSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Register the webhook URL with Telegram",
	Long: `Point Telegram at the server's /webhook endpoint.

Examples:
  bazarbot webhook set https://bot.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, err := botClient()
		if err != nil {
			return err
		}
		url := args[0] + "/webhook"
		if err := tg.SetWebhook(cmd.Context(), url, os.Getenv("BAZARBOT_WEBHOOK_SECRET")); err != nil {
			return err
		}
		fmt.Printf("Webhook set to %s\n", url)
		return nil
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the webhook registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, err := botClient()
		if err != nil {
			return err
		}
		if err := tg.DeleteWebhook(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Webhook deleted")
		return nil
	},
}

var webhookInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the current webhook registration",
	RunE: func(cmd *cobra.Command, args []string) error {
		tg, err := botClient()
		if err != nil {
			return err
		}
		info, err := tg.GetWebhookInfo(cmd.Context())
		if err != nil {
			return err
		}
		if info.URL == "" {
			fmt.Println("No webhook registered")
			return nil
		}
		fmt.Printf("URL:             %s\n", info.URL)
		fmt.Printf("Pending updates: %d\n", info.PendingUpdateCount)
		if info.LastErrorDate > 0 {
			fmt.Printf("Last error:      %s (%s)\n", info.LastErrorMessage,
				time.Unix(info.LastErrorDate, 0).Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookSetCmd)
	webhookCmd.AddCommand(webhookDeleteCmd)
	webhookCmd.AddCommand(webhookInfoCmd)
}
