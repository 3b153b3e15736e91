package main

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/hbkit/handbook-extract/internal/config"
	"github.com/hbkit/handbook-extract/internal/extract"
	"github.com/hbkit/handbook-extract/internal/fieldspec"
	"github.com/hbkit/handbook-extract/internal/layout"
	"github.com/hbkit/handbook-extract/internal/output"
	"github.com/hbkit/handbook-extract/internal/pdfio"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging directs diagnostics to stderr so extracted text on
// stdout stays clean.
func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging()

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	if err := run(cfg); err != nil {
		log.Fatalf("Extraction failed: %v", err)
	}
}

// run wires the collaborators together and processes the configured
// input.
func run(cfg *config.Config) error {
	set, err := loadFieldSet(cfg)
	if err != nil {
		return err
	}

	validator := pdfio.NewValidator(cfg.MaxFileSize)
	loader := pdfio.NewLoader(cfg.MaxFileSize)
	orchestrator := extract.NewOrchestrator(
		set,
		layout.NewBoxCalculator(cfg.Margin),
		layout.NewAssembler(cfg.MinOverlap, cfg.LineGap),
		cfg.Workers,
		cfg.IsDebug(),
	)
	writer := output.NewWriter(cfg.OutputDir, os.Stdout)

	paths := []string{cfg.PDFPath}
	if cfg.IsBatchMode() {
		paths, err = pdfio.FindPDFs(cfg.InputDir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			log.Printf("No PDF files found under %s", cfg.InputDir)
			return nil
		}
	}

	for _, path := range paths {
		if err := extractFile(path, validator, loader, orchestrator, writer); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	return nil
}

// extractFile runs the full pipeline for a single handbook.
func extractFile(path string, validator *pdfio.Validator, loader *pdfio.Loader,
	orchestrator *extract.Orchestrator, writer *output.Writer,
) error {
	if err := validator.ValidateFile(path); err != nil {
		return err
	}

	pages, err := loader.LoadFile(path)
	if err != nil {
		return err
	}

	records := orchestrator.Extract(pages)
	if len(records) == 0 {
		log.Printf("No modules found in %s", path)
		return nil
	}

	return writer.WriteRecords(records)
}

// loadFieldSet returns the configured field set, or the built-in
// handbook fields when no fields file is given.
func loadFieldSet(cfg *config.Config) (*fieldspec.Set, error) {
	if cfg.FieldsFile == "" {
		return fieldspec.Default(), nil
	}
	return fieldspec.Load(cfg.FieldsFile)
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("Handbook Extract\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
