package main

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/d1nch8g/chime/engine"
	"github.com/d1nch8g/chime/source"
)

func playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play <path|url>...",
		Short: "Play files and URLs one after another",
		Example: `  chime play intro.mp3 https://example.com/outro.mp3
  chime play --no-cache file:///tmp/ding.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPlay,
	}
}

func runPlay(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	reqs := make([]source.Request, len(args))
	for i, arg := range args {
		reqs[i] = a.request(requestFor(arg))
	}

	failed, err := a.runSequence(func(ctx context.Context, step engine.StepFunc) {
		a.session.PlaySequence(ctx, reqs, step)
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d clips failed", failed, len(reqs))
	}
	return nil
}

// requestFor treats arguments with a URL scheme as URLs and everything else
// as a local path.
func requestFor(arg string) source.Request {
	if u, err := url.Parse(arg); err == nil && len(u.Scheme) > 1 {
		return source.URL(arg)
	}
	return source.Path(arg)
}
