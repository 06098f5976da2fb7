package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"compasview/internal/config"
	"compasview/internal/executor"
	"compasview/internal/history"
	"compasview/internal/logging"
	"compasview/internal/storage"
)

func main() {
	if err := executeCLI(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func executeCLI(ctx context.Context, args []string) error {
	rootCmd := newRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	var configPath string
	rootCmd := &cobra.Command{
		Use:           "compas-tui",
		Short:         "terminal viewport for a COMPAS code-execution server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "YAML config file")
	config.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(
		newSeedCommand(&configPath),
		newHistoryCommand(&configPath),
	)
	return rootCmd
}

func newSeedCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "write the sample scripts into the local project directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			store, err := storage.NewLocalStore(cfg.ProjectDir, zap.NewNop())
			if err != nil {
				return err
			}
			written, err := store.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			return printSeeded(cmd.OutOrStdout(), store.Root(), written)
		},
	}
}

func printSeeded(w io.Writer, root string, written []string) error {
	if len(written) == 0 {
		_, err := fmt.Fprintf(w, "%s already has the sample scripts\n", root)
		return err
	}
	for _, p := range written {
		if _, err := fmt.Fprintf(w, "wrote %s\n", p); err != nil {
			return err
		}
	}
	return nil
}

func newHistoryCommand(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "print recently submitted commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *configPath)
			if err != nil {
				return err
			}
			if cfg.HistoryPath == "" {
				return fmt.Errorf("history is disabled (empty history path)")
			}
			store, err := history.Open(cmd.Context(), cfg.HistoryPath)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"), compactSingleLine(e.Code, 120))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of commands to print")
	return cmd
}

func loadConfig(cmd *cobra.Command, path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runTUI(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := logging.New(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, changes, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	hist := openHistory(ctx, cfg, logger)
	if hist != nil {
		defer hist.Close()
	}

	logger.Info("starting",
		zap.String("server", cfg.Server),
		zap.String("storage", cfg.Storage),
		zap.Int("max_visible_lines", cfg.MaxVisibleLines))

	m := newModel(deps{
		cfg:     cfg,
		exec:    executor.NewClient(cfg.Server, cfg.RequestTimeout, logger),
		store:   store,
		history: hist,
		changes: changes,
		logger:  logger,
	})
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}

// openStore picks the project store. The local store is seeded and
// watched; a watcher that fails to start only disables live refresh.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, <-chan storage.Change, error) {
	if cfg.Storage != config.StorageLocal {
		return storage.NewHTTPStore(cfg.Server, cfg.RequestTimeout, logger), nil, nil
	}
	local, err := storage.NewLocalStore(cfg.ProjectDir, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.SeedProjects {
		written, err := local.SeedDefaults(ctx)
		if err != nil {
			logger.Warn("seeding sample scripts failed", zap.Error(err))
		} else if len(written) > 0 {
			logger.Info("seeded sample scripts", zap.Strings("paths", written))
		}
	}
	changes, err := local.Watch(ctx)
	if err != nil {
		logger.Warn("project watch unavailable", zap.Error(err))
		return local, nil, nil
	}
	return local, changes, nil
}

// openHistory returns nil when history is disabled or cannot be opened.
func openHistory(ctx context.Context, cfg config.Config, logger *zap.Logger) *history.Store {
	if cfg.HistoryPath == "" || cfg.HistoryLimit == 0 {
		return nil
	}
	store, err := history.Open(ctx, cfg.HistoryPath)
	if err != nil {
		logger.Warn("command history unavailable", zap.String("path", cfg.HistoryPath), zap.Error(err))
		return nil
	}
	return store
}
