package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	engineinput "heist/pkg/engine/input"
	"heist/pkg/engine/terminal"
	"heist/pkg/game/gameplay"
	"heist/pkg/game/renderer/tui"
)

var playFlags crewFlags

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Plays the heist in the terminal. Without --server the game is solo: you play every
stage of your role's track alone against the clock. With --server the game joins a
host; leave --room empty to open a new room and share its code with the crew.

Example:
  heist play --role safecracker
  heist play --server http://localhost:8080 --room ABCD --name Ana --role lookout`,
	RunE: runPlay,
}

func init() {
	playFlags.register(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	role, err := roleFlag(playFlags.role)
	if err != nil {
		return err
	}
	if playFlags.server == "" {
		playFlags.server = cfg.Client.Server
	}
	log := logger.Named("play")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := newHeist(role, log)
	if playFlags.server != "" {
		if err := h.connect(ctx, playFlags); err != nil {
			return fmt.Errorf("join crew: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	view := tui.New(out, h.session)
	view.ClearScreen = terminal.IsInteractive()
	view.Width, _ = terminal.GetSize()

	var result gameplay.Result
	h.OnFinish = func(r gameplay.Result) {
		result = r
	}
	h.build(view, tui.NewBell(out), playFlags.seed, view.Redraw)

	restore, err := engineinput.RawMode()
	if err != nil {
		return fmt.Errorf("raw terminal mode: %w", err)
	}
	defer restore()

	intents := make(chan engineinput.Intent, 16)
	go func() {
		reader := engineinput.NewKeyReader(cmd.InOrStdin())
		debouncer := &engineinput.Debouncer{Window: 30 * time.Millisecond}
		if err := reader.Stream(debouncer, intents); err != nil && !errors.Is(err, io.EOF) {
			log.Warn("keyboard input stopped", zap.Error(err))
		}
	}()
	go func() {
		for in := range intents {
			h.loop.Post(func() { h.intent(in) })
		}
	}()

	if err := h.run(ctx); err != nil {
		return err
	}
	restore()
	if text := resultText(result); text != "" {
		fmt.Fprintln(out, "\r\n"+text)
	}
	return nil
}
