package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"radsim/internal/agent"
	"radsim/internal/app"
	"radsim/internal/config"
	"radsim/internal/logging"
)

var (
	version     = "0.1.0"
	cfgFile     string
	model       string
	promptText  string
	autoConfirm bool
	resume      bool
	markdown    bool
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "radsim",
		Short: "Coding agent with cost-aware provider failover",
		Long: `RadSim is a terminal coding agent. It sends the conversation to the cheapest
healthy model in the configured chain, runs the tools the model asks for, and
asks before anything that changes files or runs commands.`,
		SilenceUsage: true,
		RunE:         runApp,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/radsim/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "primary model, as model or provider/model")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVarP(&promptText, "prompt", "p", "", "run a single prompt and exit")
	rootCmd.Flags().BoolVar(&autoConfirm, "auto-confirm", false, "approve destructive tools without asking")
	rootCmd.Flags().BoolVarP(&resume, "continue", "c", false, "continue the most recent session")
	rootCmd.Flags().BoolVar(&markdown, "markdown", false, "render answers as markdown instead of streaming")

	rootCmd.AddCommand(newRouteCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("radsim version %s\n", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads and validates configuration with flag overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if model != "" {
		cfg.Router.Primary = parseModel(model, cfg.Router.Primary.Provider)
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = logging.LevelDebug
	}
	if err := logging.EnableFileLogging(filepath.Join(config.DataDir(), "logs"), level); err != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseModel accepts "model" or "provider/model".
func parseModel(s, defaultProvider string) config.ModelRef {
	if provider, name, ok := strings.Cut(s, "/"); ok && name != "" && config.IsKnownProvider(provider) {
		return config.ModelRef{Provider: provider, Model: name}
	}
	return config.ModelRef{Provider: defaultProvider, Model: s}
}

func runApp(cmd *cobra.Command, args []string) error {
	defer logging.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cmd.Context(), cfg, app.Options{
		Version:     version,
		AutoConfirm: autoConfirm,
		Resume:      resume,
		Markdown:    markdown,
	})
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, stop := application.HandleSignals(context.Background())
	defer stop()

	if promptText != "" {
		err := application.Ask(ctx, promptText)
		if errors.Is(err, agent.ErrCancelled) {
			os.Exit(130)
		}
		return err
	}
	return application.Run(ctx)
}
