// cmd/serve.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/markb/bazarbot/internal/bot"
	"github.com/markb/bazarbot/internal/db"
	"github.com/markb/bazarbot/internal/log"
	"github.com/markb/bazarbot/internal/migration"
	"github.com/markb/bazarbot/internal/migrations"
	"github.com/markb/bazarbot/internal/server"
	"github.com/markb/bazarbot/internal/storage"
	"github.com/markb/bazarbot/internal/store"
	"github.com/markb/bazarbot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot and Mini App API server",
	Long:  `Starts the webhook HTTP server serving Telegram updates and the Mini App API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, _ := cmd.Flags().GetString("db")
		port, _ := cmd.Flags().GetInt("port")
		host, _ := cmd.Flags().GetString("host")

		token := os.Getenv("BAZARBOT_TOKEN")
		if token == "" {
			return fmt.Errorf("BAZARBOT_TOKEN is required")
		}

		jwtSecret := os.Getenv("BAZARBOT_JWT_SECRET")
		if jwtSecret == "" {
			jwtSecret = "super-secret-jwt-key-please-change-in-production"
			fmt.Println("Warning: Using default JWT secret. Set BAZARBOT_JWT_SECRET in production.")
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database not found at %s. Run 'bazarbot init' first", dbPath)
		}
		database, err := db.New(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		// Apply any migrations shipped since the database was created
		repo, err := migration.NewRepository(migrations.All())
		if err != nil {
			return err
		}
		if _, err := migration.NewRunner(database.DB, repo).Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		photos, err := storage.NewService(cmd.Context(), buildStorageConfig())
		if err != nil {
			return fmt.Errorf("failed to initialize photo storage: %w", err)
		}
		defer photos.Close()

		tg := telegram.NewClient(token)
		botHandler := bot.New(store.New(database.DB), tg, photos, buildBotConfig(), log.Logger())

		srv := server.New(database, tg, botHandler, photos, server.Config{
			JWTSecret:     jwtSecret,
			WebhookSecret: os.Getenv("BAZARBOT_WEBHOOK_SECRET"),
			WebhookURL:    os.Getenv("BAZARBOT_WEBHOOK_URL"),
			MiniAppURL:    os.Getenv("BAZARBOT_MINIAPP_URL"),
		})

		if os.Getenv("BAZARBOT_WEBHOOK_URL") != "" {
			if err := srv.RegisterWebhook(cmd.Context()); err != nil {
				return fmt.Errorf("failed to register webhook: %w", err)
			}
			log.Info("webhook registered", "url", os.Getenv("BAZARBOT_WEBHOOK_URL"))
		}

		// Serve until interrupted, then drain in-flight requests.
		errCh := make(chan error, 1)
		httpsDomain, _ := cmd.Flags().GetString("https-domain")
		if httpsDomain != "" {
			certDir, _ := cmd.Flags().GetString("cert-dir")
			fmt.Printf("Starting bazarbot with HTTPS for %s\n", httpsDomain)
			go func() {
				errCh <- srv.ListenAndServeTLS(server.HTTPSConfig{Domain: httpsDomain, CertDir: certDir})
			}()
		} else {
			addr := fmt.Sprintf("%s:%d", host, port)
			fmt.Printf("Starting bazarbot on %s\n", addr)
			fmt.Printf("  Webhook:     http://%s/webhook\n", addr)
			fmt.Printf("  Mini App API: http://%s/api/v1\n", addr)
			go func() {
				errCh <- srv.ListenAndServe(addr)
			}()
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			log.Info("shutting down", "signal", sig.String())
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

// buildBotConfig reads the marketplace settings from the environment.
func buildBotConfig() bot.Config {
	cfg := bot.Config{
		PaymentCard: os.Getenv("BAZARBOT_PAYMENT_CARD"),
		MiniAppURL:  os.Getenv("BAZARBOT_MINIAPP_URL"),
	}
	if v := os.Getenv("BAZARBOT_AD_PRICE"); v != "" {
		if price, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.AdPrice = price
		}
	}
	return cfg
}

// buildStorageConfig reads photo storage settings from the environment.
// Defaults to local disk; set BAZARBOT_STORAGE=s3 for an S3 bucket.
func buildStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()
	if mode := os.Getenv("BAZARBOT_STORAGE"); mode != "" {
		cfg.Mode = mode
	}
	if path := os.Getenv("BAZARBOT_STORAGE_PATH"); path != "" {
		cfg.LocalPath = path
	}
	cfg.S3 = storage.S3Config{
		Endpoint:        os.Getenv("BAZARBOT_S3_ENDPOINT"),
		Region:          os.Getenv("BAZARBOT_S3_REGION"),
		Bucket:          os.Getenv("BAZARBOT_S3_BUCKET"),
		AccessKeyID:     os.Getenv("BAZARBOT_S3_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("BAZARBOT_S3_SECRET_KEY"),
		UsePathStyle:    os.Getenv("BAZARBOT_S3_USE_PATH_STYLE") == "true",
	}
	return cfg
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("db", "bazarbot.db", "Path to database file")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("https-domain", "", "Serve HTTPS with a Let's Encrypt certificate for this domain")
	serveCmd.Flags().String("cert-dir", "./certs", "Directory to cache TLS certificates")
}
