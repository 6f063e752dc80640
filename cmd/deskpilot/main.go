package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/v0xg/deskpilot/internal/agent"
	"github.com/v0xg/deskpilot/internal/config"
	"github.com/v0xg/deskpilot/internal/input"
	"github.com/v0xg/deskpilot/internal/observability"
	"github.com/v0xg/deskpilot/internal/safety"
	"github.com/v0xg/deskpilot/internal/screen"
	"github.com/v0xg/deskpilot/internal/template"
	"github.com/v0xg/deskpilot/internal/vision"
)

var (
	configPath   string
	provider     string
	model        string
	templatesDir string
	confidence   float64
	safetyLevel  string
	timeout      time.Duration
	advanced     bool
	verbose      bool
)

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "deskpilot",
		Short: "Drive the desktop with natural language via a vision model",
		Long: `deskpilot captures a screenshot, asks a cloud vision-language model where
the requested UI element is, and synthesizes the matching mouse/keyboard
input. Two modes are available:

  deskpilot vision   [instruction]   act on coordinates straight from the model
  deskpilot template [instruction]   re-locate elements via saved template crops

With no instruction argument, each mode enters an interactive prompt.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (optional)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Vision provider: gemini, claude, openai (default: from env or gemini)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.PersistentFlags().StringVar(&templatesDir, "templates-dir", "", "Directory for persisted element templates")
	rootCmd.PersistentFlags().Float64Var(&confidence, "confidence", 0, "Template match confidence threshold (0-1)")
	rootCmd.PersistentFlags().StringVar(&safetyLevel, "safety", "", "Safety level: high, medium, low")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Remote model call timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress and save debug screenshots")

	visionCmd := &cobra.Command{
		Use:   "vision [instruction]",
		Short: "Direct-coordinate mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(agent.ModeVision, args)
		},
	}

	templateCmd := &cobra.Command{
		Use:   "template [instruction]",
		Short: "Template-matching mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(agent.ModeTemplate, args)
		},
	}
	templateCmd.Flags().BoolVar(&advanced, "advanced", false, "Let the model pick from the full action vocabulary")

	rootCmd.AddCommand(visionCmd, templateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(mode agent.Mode, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg)
	if err := cfg.Finalize(); err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// One scanner over stdin, shared by the prompt loop and the safety
	// gate. Separate scanners would buffer ahead of each other and lose
	// piped confirmation answers.
	stdin := bufio.NewScanner(os.Stdin)

	a, err := buildAgent(cfg, logger, stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(args) == 1 {
		return a.Run(ctx, mode, strings.TrimSpace(args[0]))
	}

	fmt.Printf("Desktop automation (%s mode, provider: %s)\n", mode, cfg.Provider.Name)
	fmt.Println(strings.Repeat("-", 50))
	return a.Loop(ctx, mode, stdin)
}

func applyFlags(cfg *config.Config) {
	if provider != "" {
		cfg.Provider.Name = provider
		cfg.Provider.APIKey = "" // re-resolve for the chosen provider
	}
	if model != "" {
		cfg.Provider.Model = model
	}
	if templatesDir != "" {
		cfg.Templates.Dir = templatesDir
	}
	if confidence > 0 {
		cfg.Templates.Confidence = confidence
	}
	if safetyLevel != "" {
		cfg.Safety.Level = safetyLevel
	}
	if timeout > 0 {
		cfg.Provider.Timeout = timeout
	}
	if verbose {
		cfg.Logger.Level = "debug"
		if cfg.Screen.ScreenshotDir == "" {
			cfg.Screen.ScreenshotDir = "screenshots"
		}
	}
}

func buildAgent(cfg *config.Config, logger *zap.Logger, stdin *bufio.Scanner) (*agent.Agent, error) {
	prov, err := vision.NewProvider(cfg.Provider, logger)
	if err != nil {
		return nil, err
	}
	resolver := vision.NewResolver(prov, cfg.Provider.Timeout, logger)

	capturer, err := screen.NewDisplayCapturer()
	if err != nil {
		return nil, err
	}

	dispatcher := input.NewDispatcher(input.NewRobotgoDriver(), input.Options{
		WaitDuration: cfg.Input.WaitDuration,
		MinInterval:  cfg.Input.MinInterval,
		ScrollAmount: cfg.Input.ScrollAmount,
	}, logger)

	store, err := template.NewStore(cfg.Templates.Dir, logger)
	if err != nil {
		return nil, err
	}
	matcher := template.NewMatcher(cfg.Templates.Confidence, logger)

	level, err := safety.ParseLevel(cfg.Safety.Level)
	if err != nil {
		return nil, err
	}
	gate := safety.NewGate(level, stdin, os.Stdout)

	return agent.New(resolver, capturer, dispatcher, store, matcher, gate,
		os.Stdout, logger, agent.Options{
			MaxUploadWidth: cfg.Screen.MaxUploadWidth,
			ScreenshotDir:  cfg.Screen.ScreenshotDir,
			Advanced:       advanced,
		}), nil
}
