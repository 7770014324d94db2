package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photocircuit/internal/config"
	"github.com/ironsheep/photocircuit/internal/evaluate"
	"github.com/ironsheep/photocircuit/internal/fixtures"
	"github.com/ironsheep/photocircuit/internal/imaging"
	"github.com/ironsheep/photocircuit/internal/logger"
	"github.com/ironsheep/photocircuit/internal/ocr"
	"github.com/ironsheep/photocircuit/internal/recognize"
	"github.com/ironsheep/photocircuit/internal/report"
	"github.com/ironsheep/photocircuit/internal/scoring"
	"github.com/ironsheep/photocircuit/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before touching the environment
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("photocircuit %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	switch cmd {
	case "serve":
		err = runServer(ctx, cfg)
	case "evaluate":
		err = runEvaluate(ctx, cfg, args)
	case "sweep":
		err = runSweep(ctx, cfg, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("photocircuit failed")
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "photocircuit - score circuit component recognizers on labeled photos")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  photocircuit [serve]                      MCP server over stdin/stdout")
	fmt.Fprintln(w, "  photocircuit evaluate [-json F] [-html F] [-images]")
	fmt.Fprintln(w, "  photocircuit sweep [-csv F] [-sizes 500,600] [-steps 5,10]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (PHOTOCIRCUIT_ prefix):")
	fmt.Fprintln(w, "  LOG_LEVEL=debug            Enable debug logging")
	fmt.Fprintln(w, "  TARGET_SIZE=500            Scale target in pixels")
	fmt.Fprintln(w, "  THICKEN=false              Thicken strokes after scaling")
	fmt.Fprintln(w, "  GRID_STEP=0                Fixed grid step, 0 picks from image size")
	fmt.Fprintln(w, "  GRID_BASE=50               Base for the automatic grid step")
	fmt.Fprintln(w, "  INCLUDE_GRID=true          Draw grid lines for the recognizer")
	fmt.Fprintln(w, "  WORKERS=0                  Parallel evaluations, 0 uses all CPUs")
	fmt.Fprintln(w, "  FIXTURES_DIR=test/test_data")
	fmt.Fprintln(w, "  AZURE_ACCOUNT, AZURE_KEY, AZURE_CONTAINER, AZURE_PREFIX")
	fmt.Fprintln(w, "                             Read fixtures from Azure blob storage")
	fmt.Fprintln(w, "  RECOGNIZER_CMD             External recognizer command")
	fmt.Fprintln(w, "  RECOGNIZER_URL             HTTP recognizer endpoint")
	fmt.Fprintln(w, "  DETECT_PASSES=1            Recognizer runs merged per image")
	fmt.Fprintln(w, "  DETECT_TIMEOUT=60s         Limit per recognizer run")
	fmt.Fprintln(w, "  LABEL_DISTANCE=0           Edit distance tolerated in class labels")
	fmt.Fprintln(w, "  OCR_LANGUAGE=eng           Tesseract language for the OCR baseline")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Without RECOGNIZER_CMD or RECOGNIZER_URL the Tesseract designator")
	fmt.Fprintln(w, "reader is used.")
}

// buildDetector picks the recognizer from the configuration.
func buildDetector(cfg *config.Config) (recognize.Detector, error) {
	parser := recognize.Parser{LabelDistance: cfg.LabelDistance}

	var det recognize.Detector
	var backend string
	switch {
	case cfg.RecognizerCmd != "":
		cd, err := recognize.NewCommandDetector(cfg.RecognizerCmd, parser, cfg.DetectTimeout)
		if err != nil {
			return nil, err
		}
		det, backend = cd, "command"
	case cfg.RecognizerURL != "":
		det, backend = recognize.NewHTTPDetector(cfg.RecognizerURL, parser, cfg.DetectTimeout), "http"
	default:
		info := ocr.GetInfo()
		if !info.Available {
			logger.Warn("Tesseract is not available; OCR detection will fail")
		}
		det, backend = ocr.NewDesignatorDetector(cfg.OCRLanguage), "ocr"
	}

	logger.WithFields(logrus.Fields{
		"backend": backend,
		"passes":  cfg.DetectPasses,
	}).Info("Recognizer configured")
	return recognize.Repeat(det, cfg.DetectPasses), nil
}

func evaluatorOptions(cfg *config.Config) (evaluate.Options, error) {
	steps := []string{"scale"}
	if cfg.Thicken {
		steps = append(steps, "thicken")
	}
	chain, err := imaging.BuildChain(steps, cfg.TargetSize)
	if err != nil {
		return evaluate.Options{}, err
	}
	return evaluate.Options{
		Preprocess:  chain,
		GridStep:    cfg.GridStep,
		GridBase:    cfg.GridBase,
		IncludeGrid: cfg.IncludeGrid,
		Timeout:     cfg.DetectTimeout * time.Duration(cfg.DetectPasses),
		Workers:     cfg.Workers,
	}, nil
}

func fixtureSource(cfg *config.Config) (fixtures.Source, error) {
	if cfg.UseBlobFixtures() {
		return fixtures.NewBlobSource(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer, cfg.AzurePrefix)
	}
	return fixtures.NewDirSource(cfg.FixturesDir), nil
}

func runServer(ctx context.Context, cfg *config.Config) error {
	det, err := buildDetector(cfg)
	if err != nil {
		return err
	}
	opts, err := evaluatorOptions(cfg)
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Debug("photocircuit MCP server starting")
	return server.New(det, opts, Version).Run(ctx)
}

// loadSetup builds the evaluator and loads every fixture. images turns on
// annotated images in the results.
func loadSetup(ctx context.Context, cfg *config.Config, images bool) (*evaluate.Evaluator, []*fixtures.Fixture, error) {
	det, err := buildDetector(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts, err := evaluatorOptions(cfg)
	if err != nil {
		return nil, nil, err
	}
	opts.Images = images

	src, err := fixtureSource(cfg)
	if err != nil {
		return nil, nil, err
	}
	fs, err := fixtures.LoadAll(ctx, src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	logger.WithField("fixtures", len(fs)).Info("Fixtures loaded")
	return evaluate.New(det, opts), fs, nil
}

func runEvaluate(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	jsonOut := flags.String("json", "-", "Write results as JSON to this file (- for stdout)")
	htmlOut := flags.String("html", "", "Write an HTML report to this file")
	images := flags.Bool("images", false, "Render annotated images into the results")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ev, fs, err := loadSetup(ctx, cfg, *images || *htmlOut != "")
	if err != nil {
		return err
	}

	results := ev.EvaluateAll(ctx, fs)

	scores := make([]scoring.Result, len(results))
	for i, r := range results {
		scores[i] = r.Score
	}
	sum := scoring.Summarize(scores)
	logger.WithFields(logrus.Fields{
		"circuits":   sum.Total,
		"comparable": sum.Comparable,
		"mean_error": sum.Mean,
	}).Info("Evaluation finished")

	if err := writeOutput(*jsonOut, func(w io.Writer) error { return report.WriteJSON(w, results) }); err != nil {
		return err
	}
	if *htmlOut != "" {
		if err := writeOutput(*htmlOut, func(w io.Writer) error { return report.WriteHTML(w, results) }); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func runSweep(ctx context.Context, cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("sweep", flag.ContinueOnError)
	csvOut := flags.String("csv", "-", "Write rows as CSV to this file (- for stdout)")
	sizesFlag := flags.String("sizes", "", "Comma-separated screen sizes (default 500..900 by 100)")
	stepsFlag := flags.String("steps", "", "Comma-separated grid steps (default 5..100 by 5)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	sizes, err := parseInts(*sizesFlag, evaluate.DefaultScreenSizes())
	if err != nil {
		return fmt.Errorf("invalid -sizes: %w", err)
	}
	steps, err := parseInts(*stepsFlag, evaluate.DefaultGridSteps())
	if err != nil {
		return fmt.Errorf("invalid -steps: %w", err)
	}

	ev, fs, err := loadSetup(ctx, cfg, false)
	if err != nil {
		return err
	}

	var rows []report.SweepRow
	for _, f := range fs {
		fr, err := ev.Sweep(ctx, f, sizes, steps)
		if err != nil {
			return err
		}
		rows = append(rows, fr...)
	}
	return writeOutput(*csvOut, func(w io.Writer) error { return report.WriteCSV(w, rows) })
}

// parseInts reads a comma-separated list of positive integers. An empty
// string yields def.
func parseInts(s string, def []int) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if v <= 0 {
			return nil, fmt.Errorf("%d is not positive", v)
		}
		out = append(out, v)
	}
	return out, nil
}

// writeOutput writes to path, or to stdout for "-" and "".
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
