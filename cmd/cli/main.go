// Command cli is an interactive terminal translator. Press Enter to speak;
// the translation is printed and its audio saved to disk.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/satriahrh/jurubahasa/adapters/capture"
	"github.com/satriahrh/jurubahasa/adapters/capture/microphone"
	"github.com/satriahrh/jurubahasa/domain/entities"
	"github.com/satriahrh/jurubahasa/domain/repositories"
	"github.com/satriahrh/jurubahasa/internal/app"
	"github.com/satriahrh/jurubahasa/internal/config"
	"github.com/satriahrh/jurubahasa/usecase"
)

var (
	label   = color.New(color.FgCyan, color.Bold).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
	hint    = color.New(color.Faint).SprintFunc()
)

func main() {
	source := flag.String("source", "", "source language code (default from DEFAULT_SOURCE_LANGUAGE)")
	target := flag.String("target", "", "target language code (default from DEFAULT_TARGET_LANGUAGE)")
	list := flag.Bool("list", false, "list supported languages and exit")
	input := flag.String("input", "", "translate a WAV file instead of the microphone")
	outDir := flag.String("out", ".", "directory for synthesized audio")
	verbose := flag.Bool("v", false, "log pipeline details to stderr")
	flag.Parse()

	catalog := entities.DefaultCatalog()
	if *list {
		for _, lang := range catalog.All() {
			fmt.Printf("%-6s %s\n", lang.Code, lang.Name)
		}
		return
	}

	if err := run(catalog, *source, *target, *input, *outDir, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, failure(err.Error()))
		os.Exit(1)
	}
}

func run(catalog *entities.Catalog, source, target, input, outDir string, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if source == "" {
		source = cfg.DefaultSourceLanguage
	}
	if target == "" {
		target = cfg.DefaultTargetLanguage
	}

	logger := zap.NewNop()
	if verbose {
		if logger, err = app.NewLogger(cfg); err != nil {
			return err
		}
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	providers, err := app.NewProviders(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer providers.Close()

	interpreter := usecase.NewInterpreterService(
		catalog,
		providers.STT,
		usecase.NewTranslationService(providers.LLM, logger),
		providers.TTS,
		nil,
		nil,
		usecase.PipelineConfig{CaptureTimeout: cfg.CaptureTimeout, ProcessingTimeout: cfg.ProcessingTimeout},
		logger,
	)

	pipeline, err := interpreter.NewSession(source, target)
	if err != nil {
		return fmt.Errorf("choose languages from -list: %w", err)
	}
	defer pipeline.Close()

	if input != "" {
		return translateOnce(ctx, pipeline, capture.NewFileSource(input), outDir)
	}

	mic, err := microphone.New(microphone.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	defer mic.Close()

	return interactive(ctx, pipeline, mic, outDir)
}

func interactive(ctx context.Context, pipeline *usecase.SessionPipeline, mic repositories.CaptureSource, outDir string) error {
	printLanguages(pipeline.Snapshot())
	fmt.Println(hint("Enter: speak   l <source> <target>: change languages   q: quit"))

	lines := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !lines.Scan() {
			return lines.Err()
		}

		fields := strings.Fields(lines.Text())
		switch {
		case len(fields) == 0:
			if err := translateOnce(ctx, pipeline, mic, outDir); err != nil {
				return err
			}
		case fields[0] == "q":
			return nil
		case fields[0] == "l" && len(fields) == 3:
			snapshot, err := pipeline.SelectLanguages(fields[1], fields[2])
			if err != nil {
				fmt.Println(failure(err.Error()))
				continue
			}
			printLanguages(snapshot)
		default:
			fmt.Println(hint("unknown command"))
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func translateOnce(ctx context.Context, pipeline *usecase.SessionPipeline, source repositories.CaptureSource, outDir string) error {
	fmt.Println(hint("Listening..."))

	snapshot, err := pipeline.Record(ctx, source)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if snapshot.Phase == entities.PhaseIdle {
		return nil
	}

	if snapshot.Phase == entities.PhaseCaptured {
		fmt.Println(hint("Translating..."))
		if snapshot, err = pipeline.Process(ctx); err != nil {
			return err
		}
	}

	printResult(snapshot)

	if audio := snapshot.SynthesizedAudio; audio != nil {
		path := filepath.Join(outDir, audio.FileName())
		if err := os.WriteFile(path, audio.Data, 0o644); err != nil {
			return fmt.Errorf("failed to save audio: %w", err)
		}
		fmt.Println(success("Audio saved to " + path))
	}
	return nil
}

func printLanguages(s entities.Session) {
	fmt.Printf("%s → %s\n", label(s.SourceLanguage.Name), label(s.TargetLanguage.Name))
}

func printResult(s entities.Session) {
	if s.Transcript != "" {
		fmt.Printf("%s %s\n", label("("+s.SourceLanguage.Name+")"), s.Transcript)
	}
	if s.Translation != "" {
		fmt.Printf("%s %s\n", label("("+s.TargetLanguage.Name+")"), s.Translation)
	}
	if s.Failure != nil {
		fmt.Println(failure(s.Failure.Message()))
	}
}
