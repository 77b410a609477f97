package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vid2manga/internal/backend"
	"vid2manga/internal/history"
	"vid2manga/internal/intake"
	"vid2manga/internal/language"
	"vid2manga/internal/logging"
	"vid2manga/internal/notifications"
	"vid2manga/internal/poller"
	"vid2manga/internal/services"
	"vid2manga/internal/workflow"
)

type convertOptions struct {
	language  string
	drop      bool
	outputDir string
	json      bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Upload a video and wait for the conversion to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, ctx, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Spoken language of the video (en or vi; defaults to conversion.language)")
	cmd.Flags().BoolVar(&opts.drop, "drop", false, "Record the file as dropped rather than picked")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Download the video, audio, and text results into this directory")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the finished attempt as JSON")
	return cmd
}

func runConvert(cmd *cobra.Command, ctx *commandContext, opts convertOptions, path string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	runCtx := cmd.Context()
	if runCtx == nil {
		runCtx = context.Background()
	}

	source := intake.SourcePicker
	if opts.drop {
		source = intake.SourceDrop
	}
	params := backend.JobParameters{Language: cfg.Conversion.Language}
	if strings.TrimSpace(opts.language) != "" {
		params.Language = opts.language
	}

	client, err := backend.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	orchestrator, err := workflow.New(workflow.Options{
		Submitter: client,
		Tracker:   poller.New(client, cfg.PollInterval(), logger),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer orchestrator.Close()

	progressOut := cmd.OutOrStdout()
	if opts.json {
		progressOut = cmd.ErrOrStderr()
	}
	notifyTimeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	dispatcher := notifications.NewDispatcher(notifications.NewService(cfg), notifyTimeout, logger)

	orchestrator.Subscribe(history.NewRecorder(store, logger))
	orchestrator.Subscribe(newProgressRenderer(progressOut, shouldColorize(progressOut), cfg.PollInterval()))
	orchestrator.Subscribe(dispatcher)

	if err := orchestrator.Select(path, source); err != nil {
		if errors.Is(err, services.ErrInvalidFileType) {
			return newUserError(services.UserMessage(err), err)
		}
		return err
	}
	if err := orchestrator.Start(runCtx, params); err != nil {
		if errors.Is(err, services.ErrUnsupportedLanguage) {
			return newUserError(fmt.Sprintf("%s (supported: %s)", services.UserMessage(err), strings.Join(language.Supported(), ", ")), err)
		}
		return err
	}

	state, waitErr := orchestrator.Wait(runCtx)
	if waitErr != nil || runCtx.Err() != nil {
		orchestrator.Close()
		if waitErr == nil {
			waitErr = runCtx.Err()
		}
		return waitErr
	}

	flushCtx, cancel := context.WithTimeout(runCtx, notifyTimeout+time.Second)
	if err := dispatcher.Wait(flushCtx); err != nil {
		logger.Warn("notifications still pending at exit", logging.Error(err))
	}
	cancel()

	var downloads []string
	if state.Phase == workflow.PhaseSucceeded && strings.TrimSpace(opts.outputDir) != "" {
		downloads, err = saveResults(runCtx, client, state, opts.outputDir)
		if err != nil {
			return err
		}
		if !opts.json {
			for _, saved := range downloads {
				fmt.Fprintln(progressOut, renderDetailLine("Saved", saved))
			}
		}
	}

	if opts.json {
		if err := writeJSON(cmd, stateView(state, downloads)); err != nil {
			return err
		}
	}

	if state.Phase != workflow.PhaseSucceeded {
		return newUserError(state.ErrorMessage, nil)
	}
	return nil
}

// saveResults downloads the result artifacts into dir and writes the extracted
// text next to them as <name>.txt.
func saveResults(ctx context.Context, client *backend.Client, state workflow.State, dir string) ([]string, error) {
	if state.Result == nil {
		return nil, nil
	}
	stem := strings.TrimSuffix(state.Candidate.Name, filepath.Ext(state.Candidate.Name))
	if stem == "" {
		stem = "result"
	}

	var saved []string
	artifacts := []struct {
		url      string
		fallback string
	}{
		{state.Result.VideoURL, stem + "-manga.mp4"},
		{state.Result.AudioURL, stem + "-audio.mp3"},
	}
	for _, artifact := range artifacts {
		if strings.TrimSpace(artifact.url) == "" {
			continue
		}
		written, err := client.Download(ctx, artifact.url, dir, artifact.fallback)
		if err != nil {
			return saved, err
		}
		saved = append(saved, written)
	}

	if strings.TrimSpace(state.Result.Text) != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return saved, fmt.Errorf("create output directory: %w", err)
		}
		textPath := filepath.Join(dir, stem+".txt")
		if err := writeTextFile(textPath, state.Result.Text); err != nil {
			return saved, err
		}
		saved = append(saved, textPath)
	}
	return saved, nil
}

func writeTextFile(path, text string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := io.WriteString(file, strings.TrimRight(text, "\n")+"\n"); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
