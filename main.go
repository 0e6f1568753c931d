package main

import (
	"fmt"
	"os"

	"github.com/leonelquinteros/gotext"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heist/pkg/game/config"
	"heist/pkg/game/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	locale     string

	// Loaded in PersistentPreRunE
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "heist",
	Short: "Heist - a cooperative puzzle game for a crew of four",
	Long: `Heist is a cooperative puzzle game. Each crew member plays a role, the Hacker,
the Safe Cracker, the Demolitions expert or the Lookout, and solves their own puzzle
at each of five stages before the game timer runs out.

Play alone in the terminal or the window, or start a host server and join it as a crew.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		var o config.Overrides
		if cmd.Flags().Changed("verbose") {
			o.Verbose = &verbose
		}
		if cmd.Flags().Changed("locale") {
			o.Locale = &locale
		}
		cfg = o.Apply(loaded)

		// The terminal frontend owns the screen, so its log goes to a file
		if cmd.Name() == playCmd.Name() && cfg.Log.File == "" {
			cfg.Log.File = "heist.log"
		}
		logger, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}

		gotext.Configure(cfg.Client.LocalesDir, cfg.Client.Locale, "default")
		logger.Debug("configured",
			zap.String("config", configPath),
			zap.String("locale", cfg.Client.Locale))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "heist.yaml", "settings file (missing file uses the defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "en_US", "message catalog to load from the locales directory")

	rootCmd.AddCommand(playCmd, guiCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
