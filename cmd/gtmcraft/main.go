package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/gtmcraft/internal/config"
	"github.com/TobiSchelling/gtmcraft/internal/craft"
	"github.com/TobiSchelling/gtmcraft/internal/database"
	"github.com/TobiSchelling/gtmcraft/internal/llm"
	"github.com/TobiSchelling/gtmcraft/internal/logging"
	"github.com/TobiSchelling/gtmcraft/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	clientID   string
	cfg        *config.Config
	syncLogger func()
)

func main() {
	err := rootCmd.Execute()
	if syncLogger != nil {
		syncLogger()
	}
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "gtmcraft",
	Short:   "GTM content authoring with an LLM",
	Long:    "gtmcraft keeps product context, ICP story scripts, author voices and customer stories per client and turns them into ideas, posts, emails and articles.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(); err != nil {
			return err
		}

		logCfg := config.Default().Logging
		if cmd.Name() != "init" && cmd.Name() != "version" {
			path, err := config.ResolveConfigPath(configPath)
			if err != nil {
				return err
			}
			cfg, err = config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logCfg = cfg.Logging
		}

		sync, err := logging.Install(logging.Config{Level: logCfg.Level, Encoding: logCfg.Encoding, Verbose: verbose})
		if err != nil {
			return err
		}
		syncLogger = sync
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&clientID, "client", database.DefaultClientID, "Client workspace")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("gtmcraft", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/gtmcraft/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the LLM provider and trigger feeds.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and provider status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		client := newClient()
		fmt.Printf("Database: %s\n", db.Path())
		fmt.Printf("LLM provider: %s\n\n", client.ProviderName())
		fmt.Println("Workspace records:")
		fmt.Printf("  Clients with product context: %d\n", stats.Clients)
		fmt.Printf("  ICP story scripts: %d\n", stats.ICPs)
		fmt.Printf("  Authors: %d\n", stats.Authors)
		fmt.Printf("  Success stories: %d\n", stats.Stories)
		fmt.Println("\nOutput:")
		fmt.Printf("  Ideas: %d (%d scored)\n", stats.Ideas, stats.Scored)
		fmt.Printf("  Crafted contents: %d\n", stats.Contents)
		fmt.Printf("  Open drafts: %d\n", stats.Drafts)
		fmt.Printf("  Trigger candidates: %d\n", stats.Triggers)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		notes := &craft.Recorder{}
		crafter := craft.New(db, newClient(), cfg, craft.Multi{craft.LogNotifier{}, notes})
		srv := server.New(server.Config{Port: port, AllowAll: cfg.Server.AllowAll}, db, crafter, notes)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		fmt.Printf("Serving on http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(filepath.Join(dataDir, "gtmcraft.db"))
}

func newClient() *llm.Client {
	return llm.NewClient(llm.CreateProvider(cfg.LLM))
}

// newCrafter opens the database and wires a crafter that logs its
// notifications. The returned func closes the database.
func newCrafter() (*craft.Crafter, *database.DB, func(), error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, nil, err
	}
	return craft.New(db, newClient(), cfg, craft.LogNotifier{}), db, func() { db.Close() }, nil
}

// explain prints a user-facing hint for the typed errors crafting returns.
func explain(err error) error {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) && genErr.Reason == llm.ReasonNotConfigured {
		zap.S().Warn("No LLM provider is reachable; start Ollama or set the OpenAI API key")
	}
	return err
}
