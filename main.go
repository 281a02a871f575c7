package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/d1nch8g/chime/config"
	"github.com/d1nch8g/chime/engine"
	"github.com/d1nch8g/chime/logger"
	"github.com/d1nch8g/chime/source"
	"github.com/d1nch8g/chime/sound"
	"github.com/d1nch8g/chime/tts"
)

var (
	envFiles []string
	logLevel string
	noCache  bool
)

func main() {
	root := &cobra.Command{
		Use:           "chime",
		Short:         "Play audio clips from files, URLs, HTML and speech",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "Env files to load (default .env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Bypass cache lookups")

	root.AddCommand(playCommand(), htmlCommand(), sayCommand(), serveCommand())

	if err := root.Execute(); err != nil {
		logger.Log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// app is the wiring shared by every subcommand.
type app struct {
	cfg     *config.Config
	session *engine.Session
	decoder *sound.PortaudioDecoder
	synth   *tts.YandexTTSClient
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig(envFiles...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.LogJSON {
		logger.SetJSON()
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if err := logger.SetLevelString(level); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	a := &app{cfg: cfg}
	resolverConfig := source.ResolverConfig{
		Fetcher: source.NewHTTPFetcher(cfg.FetchTimeout),
		Logger:  logger.Component("resolver"),
	}
	if len(cfg.BundleDirs) > 0 {
		resolverConfig.Bundle = source.DirBundle{Dirs: cfg.BundleDirs}
	}
	if cfg.TTS.Enabled() {
		synth, err := tts.NewYandexTTSClient(tts.YandexConfig{
			ApiKey:   cfg.TTS.ApiKey,
			FolderID: cfg.TTS.FolderID,
			Options:  tts.SynthesisOptions{Voice: cfg.TTS.Voice},
			Logger:   logger.Component("tts"),
		})
		if err != nil {
			return nil, err
		}
		a.synth = synth
		resolverConfig.Synthesizer = synth
	}

	a.decoder = sound.NewPortaudioDecoder(sound.PlayerConfig{FramesPerBuffer: cfg.FramesPerBuffer})
	if err := a.decoder.Initialize(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	a.session = engine.NewSession(source.NewResolver(resolverConfig), a.decoder, logger.Component("session"))
	return a, nil
}

func (a *app) Close() {
	if a.session != nil {
		a.session.Stop()
	}
	if a.decoder != nil {
		a.decoder.Terminate()
	}
	if a.synth != nil {
		a.synth.Close()
	}
}

func (a *app) request(r source.Request) source.Request {
	if noCache {
		return r.WithoutCache()
	}
	return r
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runSequence starts playback through play and blocks until the final step
// or a signal arrives. It reports the number of failed items.
func (a *app) runSequence(play func(ctx context.Context, step engine.StepFunc)) (int, error) {
	ctx, cancel := signalContext()
	defer cancel()

	failed := 0
	finished := make(chan struct{})
	item := 0
	play(ctx, func(final bool, err error) {
		if err != nil {
			failed++
			logger.Log.Warn().Err(err).Int("item", item).Msg("clip failed")
		}
		item++
		if final {
			close(finished)
		}
	})

	select {
	case <-finished:
		return failed, nil
	case <-ctx.Done():
		a.session.Stop()
		return 0, ctx.Err()
	}
}
