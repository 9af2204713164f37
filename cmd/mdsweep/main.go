package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuya-takeyama/mdsweep/pkg/archiver"
	"github.com/yuya-takeyama/mdsweep/pkg/document"
	"github.com/yuya-takeyama/mdsweep/pkg/executor"
	"github.com/yuya-takeyama/mdsweep/pkg/logger"
	"github.com/yuya-takeyama/mdsweep/pkg/planner"
	"github.com/yuya-takeyama/mdsweep/pkg/reference"
	"github.com/yuya-takeyama/mdsweep/pkg/s3client"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

type runConfig struct {
	root            string
	excludeExternal bool
	logLevel        string
	logFile         string
	quiet           bool
	dryRun          bool
	excludes        []string
	docExts         []string
	warnPatterns    []string
	quarantineDir   string
	parser          string
	planJSONFile    string
	resultJSONFile  string
	archiveS3URI    string
	profile         string
	region          string
	concurrency     int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg runConfig

	rootCmd := &cobra.Command{
		Use:   "mdsweep <RootDir>",
		Short: "Move media files no Markdown document references into a quarantine folder",
		Long: `mdsweep scans a directory of Markdown documents and media files, finds the
files no document references as an image, and moves them into a quarantine
folder (red_files) under the root for manual review. Nothing is deleted.`,
		Version:       fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.root = args[0]

			if err := validateConfig(&cfg); err != nil {
				return err
			}

			return run(cmd.Context(), &cfg)
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&cfg.excludeExternal, "exclude-external", true, "Exclude remote and absolute references from the used set (with a warning)")
	flags.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&cfg.logFile, "log-file", "", "Also write the run log to this file")
	flags.BoolVar(&cfg.quiet, "quiet", false, "Only show warnings and errors on the console")
	flags.BoolVar(&cfg.dryRun, "dryrun", false, "Shows operations without executing")
	flags.StringSliceVar(&cfg.excludes, "exclude", nil, "Exclude patterns relative to the root (multiple allowed, dir/ excludes a subtree)")
	flags.StringSliceVar(&cfg.docExts, "doc-ext", document.DefaultExtensions, "Document extensions")
	flags.StringSliceVar(&cfg.warnPatterns, "warn-pattern", document.DefaultWarnPatterns, "Warn when a candidate asset matches one of these patterns")
	flags.StringVar(&cfg.quarantineDir, "quarantine-dir", planner.DefaultQuarantineDir, "Quarantine directory, relative to the root")
	flags.StringVar(&cfg.parser, "parser", "pattern", "Reference parser: pattern or markdown")
	flags.StringVar(&cfg.planJSONFile, "plan-json-file", "", "Path to output plan as JSON file")
	flags.StringVar(&cfg.resultJSONFile, "result-json-file", "", "Path to output result as JSON file")
	flags.StringVar(&cfg.archiveS3URI, "archive-s3-uri", "", "Upload quarantined files to this S3 URI (s3://bucket/prefix)")
	flags.StringVar(&cfg.profile, "profile", "", "AWS profile to use")
	flags.StringVar(&cfg.region, "region", "", "AWS region (uses default if not specified)")
	flags.IntVar(&cfg.concurrency, "concurrency", 8, "Number of concurrent archive uploads")

	return rootCmd
}

func validateConfig(cfg *runConfig) error {
	if cfg.root == "" {
		return fmt.Errorf("root directory is required")
	}

	if _, err := logger.ParseLevel(cfg.logLevel); err != nil {
		return err
	}

	if _, err := reference.NewExtractor(cfg.parser); err != nil {
		return err
	}

	if !filepath.IsLocal(cfg.quarantineDir) {
		return fmt.Errorf("quarantine directory must be a relative path inside the root: %q", cfg.quarantineDir)
	}

	if cfg.archiveS3URI != "" {
		if _, _, err := s3client.ParseS3URI(cfg.archiveS3URI); err != nil {
			return fmt.Errorf("invalid archive S3 URI: %w", err)
		}
	}

	if cfg.concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}

	return nil
}

func run(ctx context.Context, cfg *runConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	startTime := time.Now()

	log, closeLog, err := logger.New(logger.Options{
		Level: cfg.logLevel,
		File:  cfg.logFile,
		Quiet: cfg.quiet,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	extractor, err := reference.NewExtractor(cfg.parser)
	if err != nil {
		return err
	}

	plnr := planner.NewPlanner(extractor, log)
	plan, err := plnr.Plan(ctx, cfg.root, planner.Options{
		Extensions:      cfg.docExts,
		WarnPatterns:    cfg.warnPatterns,
		Excludes:        cfg.excludes,
		Skip:            []string{cfg.logFile, cfg.planJSONFile, cfg.resultJSONFile},
		ExcludeExternal: cfg.excludeExternal,
		QuarantineDir:   cfg.quarantineDir,
	})
	if err != nil {
		log.Error("Failed to generate plan", zap.Error(err))
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	// Output plan if requested
	if cfg.planJSONFile != "" {
		if err := writeJSON(cfg.planJSONFile, buildPlanResult(plan)); err != nil {
			return fmt.Errorf("failed to write plan JSON: %w", err)
		}
	}

	if len(plan.Items) == 0 {
		if cfg.resultJSONFile != "" && !cfg.dryRun {
			if err := writeJSON(cfg.resultJSONFile, buildRunResult(nil, nil)); err != nil {
				return fmt.Errorf("failed to write result JSON: %w", err)
			}
		}
		return nil
	}

	exec := executor.NewExecutor(log, cfg.dryRun)
	results := exec.Execute(ctx, plan.Items)

	if cfg.dryRun {
		return nil
	}

	var moved []planner.Item
	var failed int
	var bytesMoved int64
	for _, result := range results {
		if result.Error != nil {
			failed++
			continue
		}
		moved = append(moved, result.Item)
		bytesMoved += result.Item.Size
	}

	if len(moved) > 0 {
		log.Info("All redundant files are moved, waiting for manual verification",
			zap.String("quarantine", plan.QuarantineRoot))
	}

	var archived []archiver.Result
	var archiveErr error
	if cfg.archiveS3URI != "" && len(moved) > 0 {
		archived, archiveErr = archiveQuarantine(ctx, cfg, log, moved)
		if archiveErr != nil {
			log.Error("Failed to archive quarantine", zap.Error(archiveErr))
		}
	}

	logger.Summary(log, len(moved), failed, bytesMoved, time.Since(startTime))

	if cfg.resultJSONFile != "" {
		if err := writeJSON(cfg.resultJSONFile, buildRunResult(results, archived)); err != nil {
			return fmt.Errorf("failed to write result JSON: %w", err)
		}
	}

	if archiveErr != nil {
		return archiveErr
	}
	if failed > 0 {
		return fmt.Errorf("%d moves failed", failed)
	}
	for _, a := range archived {
		if a.Error != nil {
			return fmt.Errorf("archive upload failed for some files")
		}
	}

	return nil
}

func archiveQuarantine(ctx context.Context, cfg *runConfig, log *zap.Logger, items []planner.Item) ([]archiver.Result, error) {
	// Build config options
	var configOpts []func(*config.LoadOptions) error
	if cfg.profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(cfg.profile))
	}
	if cfg.region != "" {
		configOpts = append(configOpts, config.WithRegion(cfg.region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	arch, err := archiver.NewArchiver(s3client.NewAWSClient(awsCfg), log, cfg.archiveS3URI, cfg.concurrency)
	if err != nil {
		return nil, err
	}

	return arch.Archive(ctx, items), nil
}
