package main

import (
	"context"
	"fmt"

	"github.com/leonelquinteros/gotext"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"heist/pkg/game/gameplay"
	ebitenrenderer "heist/pkg/game/renderer/ebiten"
)

var (
	guiFlags  crewFlags
	guiVolume float64
)

// dynamicGet is used for runtime translation key lookups.
var dynamicGet = gotext.Get

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Play in a window",
	Long: `Plays the heist in a window with mouse, keyboard and gamepad input. Takes the same
crew options as play.

Example:
  heist gui --role demolitions
  heist gui --server http://localhost:8080 --room ABCD --role hacker`,
	RunE: runGUI,
}

func init() {
	guiFlags.register(guiCmd)
	guiCmd.Flags().Float64Var(&guiVolume, "volume", 0.5, "sound volume from 0 to 1 (0 mutes)")
}

func runGUI(cmd *cobra.Command, args []string) error {
	role, err := roleFlag(guiFlags.role)
	if err != nil {
		return err
	}
	if guiFlags.server == "" {
		guiFlags.server = cfg.Client.Server
	}
	log := logger.Named("gui")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	h := newHeist(role, log)
	if guiFlags.server != "" {
		if err := h.connect(ctx, guiFlags); err != nil {
			return fmt.Errorf("join crew: %w", err)
		}
	}

	window, err := ebitenrenderer.New(log)
	if err != nil {
		return err
	}
	audio := ebitenrenderer.NewAudio(window, min(max(guiVolume, 0), 1))

	// HUD snapshots are taken on the loop, the window only reads them
	var result gameplay.Result
	publish := func() {
		window.SetHUD(ebitenrenderer.HUDFromSession(h.session, resultText(result)))
	}
	h.OnFinish = func(r gameplay.Result) {
		result = r
		publish()
	}
	h.build(window.Surface(), audio, guiFlags.seed, publish)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer window.Close()
		return h.run(egCtx)
	})
	eg.Go(func() error {
		for {
			select {
			case <-egCtx.Done():
				return nil
			case in := <-window.Intents():
				h.loop.Post(func() { h.intent(in) })
			}
		}
	})

	title := gotext.Get("Heist")
	if role != "" {
		title += " - " + dynamicGet(string(role))
	}
	runErr := window.Run(title)
	cancel()
	if err := eg.Wait(); err != nil {
		return err
	}
	return runErr
}
