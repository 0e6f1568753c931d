package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"heist/pkg/game/config"
	"heist/pkg/game/logging"
	"heist/pkg/server"
)

var (
	serveAddr  string
	serveJSON  bool
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the host server for networked crews",
	Long: `Runs the host server. Players create and join rooms over HTTP and play over a
websocket. The host owns the game timer, random security events, role powers and
answer checking for every room.

Game tuning in the settings file is reloaded when the file changes; new values apply
to rooms created afterwards.

Example:
  heist serve --addr :8080 --config heist.yaml`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides the settings file)")
	serveCmd.Flags().BoolVar(&serveJSON, "json", false, "log as JSON")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "reload game tuning when the settings file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	var o config.Overrides
	if cmd.Flags().Changed("addr") {
		o.Addr = &serveAddr
	}
	conf := o.Apply(cfg)

	log := logger
	if serveJSON && !cfg.Log.JSON {
		conf.Log.JSON = true
		if l, err := logging.New(conf.Log); err == nil {
			log = l
			defer func() { _ = l.Sync() }()
		}
	}
	log = log.Named("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(conf, log)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Run(egCtx)
	})
	if serveWatch && configPath != "" {
		eg.Go(func() error {
			err := config.Watch(egCtx, configPath, log, func(next config.Config) {
				srv.Reload(o.Apply(next))
				log.Info("game tuning reloaded",
					zap.Duration("initial_timer", next.Game.InitialTimer),
					zap.Float64("event_chance", next.Game.EventChance))
			})
			if err != nil {
				// Serving goes on with the settings loaded at start
				log.Warn("config watch unavailable", zap.Error(err))
			}
			return nil
		})
	}
	return eg.Wait()
}
