package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/d1nch8g/chime/engine"
	"github.com/d1nch8g/chime/markup"
)

var htmlMode string

func htmlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "html <file|->",
		Short: "Play the audio elements of an HTML document",
		Example: `  chime html page.html
  chime html --mode first page.html
  curl -s https://example.com/page | chime html -`,
		Args: cobra.ExactArgs(1),
		RunE: runHTML,
	}

	cmd.Flags().StringVarP(&htmlMode, "mode", "m", "all", "Which sources to play: all, first or last")

	return cmd
}

func runHTML(cmd *cobra.Command, args []string) error {
	if htmlMode != "all" && htmlMode != "first" && htmlMode != "last" {
		return fmt.Errorf("unknown mode %q", htmlMode)
	}

	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}
	if !markup.HasAudio(doc) {
		return engine.ErrNoValidSourcesFound
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	useCache := !noCache
	failed, err := a.runSequence(func(ctx context.Context, step engine.StepFunc) {
		done := func(err error) { step(true, err) }
		switch htmlMode {
		case "first":
			a.session.PlayFirst(ctx, doc, useCache, done)
		case "last":
			a.session.PlayLast(ctx, doc, useCache, done)
		default:
			a.session.PlayHTML(ctx, doc, useCache, step)
		}
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d clips failed", failed)
	}
	return nil
}

func readDocument(name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
