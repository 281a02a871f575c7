package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d1nch8g/chime/engine"
	"github.com/d1nch8g/chime/source"
)

func sayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "say <text>...",
		Short: "Synthesize speech and play it",
		Long: `Synthesize the given text with Yandex SpeechKit and play it.
Requires TTS_API_KEY and TTS_FOLDER_ID in the environment or .env file.`,
		Example: `  chime say "Someone is at the door"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runSay,
	}
}

func runSay(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.synth == nil {
		return errors.New("speech synthesis is not configured: set TTS_API_KEY and TTS_FOLDER_ID")
	}

	req := a.request(source.Speech(strings.Join(args, " ")))
	failed, err := a.runSequence(func(ctx context.Context, step engine.StepFunc) {
		a.session.Play(ctx, req, func(err error) { step(true, err) })
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return errors.New("speech playback failed")
	}
	return nil
}
