package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/phuslu/log"

	"github.com/a3tai/str-extractor/internal/config"
	strerrors "github.com/a3tai/str-extractor/internal/errors"
	"github.com/a3tai/str-extractor/internal/extract"
	"github.com/a3tai/str-extractor/internal/logging"
	"github.com/a3tai/str-extractor/internal/mcp"
	"github.com/a3tai/str-extractor/internal/output"
	"github.com/a3tai/str-extractor/internal/overlay"
	"github.com/a3tai/str-extractor/internal/pdf"
	"github.com/a3tai/str-extractor/internal/template"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel)
	if version != "dev" {
		cfg.Version = version
	}
	log.Debug().Str("config", cfg.String()).Msg("Configuration loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(exitCode(err))
	}
}

// Exit statuses
const (
	exitFailure   = 1 // extraction or output failed
	exitPreflight = 2 // a template or an input file is missing or malformed
)

func exitCode(err error) int {
	if strerrors.KindOf(err).Fatal() {
		return exitPreflight
	}
	return exitFailure
}

// run executes the configured mode. Any returned error ends the process
// with a non-zero status.
func run(ctx context.Context, cfg *config.Config) error {
	reader := pdf.NewReader(cfg.MaxFileSize)
	validator := pdf.NewValidator(cfg.MaxFileSize)

	if cfg.InitTemplate != "" {
		return initTemplate(cfg, reader)
	}

	variants := template.NewVariantSet(cfg.TemplatePath, cfg.WithSpouseTemplate, cfg.WithoutSpouseTemplate)
	if err := preflight(cfg, variants, validator); err != nil {
		return err
	}

	extractor, err := newExtractor(cfg, variants, reader)
	if err != nil {
		return err
	}

	if cfg.IsMCPMode() {
		server, err := mcp.NewServer(cfg, extractor, validator)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}
		return server.Run(ctx)
	}

	return extractInputs(ctx, cfg, extractor)
}

// preflight checks the template files and that every input exists before any
// document is processed. Other input defects fail only their own document.
func preflight(cfg *config.Config, variants template.VariantSet, validator *pdf.Validator) error {
	if err := variants.Check(); err != nil {
		return err
	}
	for _, path := range cfg.Inputs {
		if err := validator.CheckExists(path); err != nil {
			return err
		}
	}
	return nil
}

func newExtractor(cfg *config.Config, variants template.VariantSet, reader *pdf.Reader) (*extract.Extractor, error) {
	opts := extract.Options{
		Templates: variants,
		Reader:    reader,
	}
	if cfg.ProfilePath != "" {
		profile, err := extract.LoadProfile(cfg.ProfilePath)
		if err != nil {
			return nil, err
		}
		opts.Profile = profile
	}
	if cfg.OverlayDir != "" {
		opts.Renderer = overlay.NewWriter(cfg.OverlayDir)
	}
	return extract.New(opts)
}

// extractInputs processes the inputs and writes the output file. A single
// input is written as a bare record; several are written as a list and a
// failing document only drops its own record.
func extractInputs(ctx context.Context, cfg *config.Config, extractor *extract.Extractor) error {
	path := cfg.OutputPath
	if path == "" {
		path = output.DefaultPath(cfg.Inputs, cfg.Format)
	}

	if len(cfg.Inputs) == 1 {
		rec, err := extractor.ExtractFile(cfg.Inputs[0])
		if err != nil {
			return err
		}
		if err := output.Write(path, cfg.Format, []*extract.Record{rec}, true); err != nil {
			return err
		}
		log.Info().Str("output", path).Int("records", 1).Msg("Extraction complete")
		return nil
	}

	records, failures := extractor.ExtractBatch(ctx, cfg.Inputs)
	if len(records) == 0 && cfg.Format == output.FormatCSV {
		return fmt.Errorf("no document could be extracted: %s", failures.Summary())
	}
	if err := output.Write(path, cfg.Format, records, false); err != nil {
		return err
	}

	log.Info().
		Str("output", path).
		Int("records", len(records)).
		Int("failed", failures.Len()).
		Msg("Extraction complete")
	if failures.Len() > 0 {
		log.Warn().Msg(failures.Summary())
	}
	return nil
}

// initTemplate writes the starter box set, sized from the first input when one
// is given
func initTemplate(cfg *config.Config, reader *pdf.Reader) error {
	var width, height float64
	if len(cfg.Inputs) > 0 {
		pages, err := reader.PageCount(cfg.Inputs[0])
		if err != nil {
			return err
		}
		if pages > 1 {
			log.Info().
				Str("path", cfg.Inputs[0]).
				Int("pages", pages).
				Int("page", extract.FormPage).
				Msg("Sizing template from the form page")
		}

		page, err := reader.ReadPage(cfg.Inputs[0], extract.FormPage)
		if err != nil {
			return err
		}
		width, height = page.Width, page.Height
	}

	t := template.Starter(width, height)
	if err := t.Save(cfg.InitTemplate); err != nil {
		return err
	}
	log.Info().
		Str("path", cfg.InitTemplate).
		Int("fields", len(t.Names())).
		Float64("width", width).
		Float64("height", height).
		Msg("Starter template written")
	return nil
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("STR Extract\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
