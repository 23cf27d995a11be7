package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mfenderov/smart-organizer/internal/app"
	"github.com/mfenderov/smart-organizer/internal/config"
	"github.com/mfenderov/smart-organizer/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "smart-organizer",
	Short: "Smart Document Organizer: classify, browse and summarize your documents",
	Long: `Smart Document Organizer is a client for the document classification service.
Upload PDF and DOCX files, let the service sort them into categories, browse
and search the results, get AI summaries, and export everything as a zip.

Commands:
  login, signup, logout  Manage your session
  upload                 Classify up to 5 documents
  categories, documents  Browse your library
  summarize, delete      Act on one document
  export                 Download all documents as a zip archive
  tui                    Start the interactive client
  serve                  Start the MCP server`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func initLogger() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "smart-organizer"))
		}
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// SMARTORG_API_BASE_URL -> api.base_url
	viper.SetEnvPrefix("SMARTORG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("api.base_url", "SMARTORG_API_BASE_URL")
	viper.BindEnv("api.timeout", "SMARTORG_API_TIMEOUT")
	viper.BindEnv("api.summary_timeout", "SMARTORG_API_SUMMARY_TIMEOUT")
	viper.BindEnv("api.retry.max_attempts", "SMARTORG_API_RETRY_MAX_ATTEMPTS")
	viper.BindEnv("api.retry.breaker_enabled", "SMARTORG_API_RETRY_BREAKER_ENABLED")
	viper.BindEnv("client.data_dir", "SMARTORG_CLIENT_DATA_DIR")
	viper.BindEnv("client.export_dir", "SMARTORG_CLIENT_EXPORT_DIR")
	viper.BindEnv("client.login_delay", "SMARTORG_CLIENT_LOGIN_DELAY")
	viper.BindEnv("limits.summaries_per_hour", "SMARTORG_LIMITS_SUMMARIES_PER_HOUR")
	viper.BindEnv("storage.enabled", "SMARTORG_STORAGE_ENABLED")
	viper.BindEnv("storage.endpoint", "SMARTORG_STORAGE_ENDPOINT")
	viper.BindEnv("storage.bucket", "SMARTORG_STORAGE_BUCKET")
	viper.BindEnv("storage.access_key_id", "SMARTORG_STORAGE_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "SMARTORG_STORAGE_SECRET_ACCESS_KEY")
	viper.BindEnv("storage.use_ssl", "SMARTORG_STORAGE_USE_SSL")
	viper.BindEnv("mcp.name", "SMARTORG_MCP_NAME")
	viper.BindEnv("mcp.version", "SMARTORG_MCP_VERSION")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}
}

// withApp builds the client from conf, runs fn, prints the resulting
// notifications and tears the client down.
func withApp(cmd *cobra.Command, conf config.Config, fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(conf, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	a.HandleExpired(err)
	printNotifications(cmd.OutOrStdout(), tui.NewStyles(a.Prefs.Theme()), a.Notes.List())
	return err
}
