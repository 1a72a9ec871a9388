// =============================================================================
// Transport Challan & Ledger - Shared Generation Flow
// =============================================================================
//
// This file holds the run flow shared by the document commands (challans,
// ledgers, party-summary). Each command only decides which columns it needs
// and which pipeline stage it calls.
//
// PROCESSING FLOW:
//   1. Prepare directories and prune old archives
//   2. Discover input files (or use --file)
//   3. Read every file; a missing required column aborts the whole run
//   4. Normalize rows into shipment records (bad cells are absorbed)
//   5. Group, aggregate and render through the pipeline
//   6. Write the ZIP bundle (or plain files with --no-bundle)
//   7. Archive inputs and the bundle
//   8. Write the error log and the processing summary
//
// An empty group set is informational: "no data" is printed and the
// command exits successfully.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/transport-challan-ledger/internal/config"
	"github.com/ginjaninja78/transport-challan-ledger/internal/csvparser"
	"github.com/ginjaninja78/transport-challan-ledger/internal/pipeline"
	"github.com/ginjaninja78/transport-challan-ledger/internal/render"
	"github.com/ginjaninja78/transport-challan-ledger/internal/types"
	"github.com/ginjaninja78/transport-challan-ledger/internal/validation"
	"github.com/ginjaninja78/transport-challan-ledger/internal/xlsxparser"
	"github.com/ginjaninja78/transport-challan-ledger/pkg/utils"
)

// =============================================================================
// GENERATION DESCRIPTION
// =============================================================================

// stage runs one pipeline stage over the records of a run.
type stage func(p *pipeline.Pipeline, ctx context.Context, records []types.ShipmentRecord) (*pipeline.Result, error)

// generation describes one document command run.
type generation struct {
	// command names the run in logs and the summary.
	command string

	// prefix starts the bundle file name, e.g. "challans".
	prefix string

	// required are the columns every input sheet must carry.
	required []string

	// file is the single input file to process; empty scans InputDir.
	file string

	noBundle bool
	dryRun   bool

	opts pipeline.Options
	run  stage
}

// pipelineOptions maps the configuration onto pipeline settings.
func pipelineOptions(cfg *config.MainConfig) pipeline.Options {
	return pipeline.Options{
		OtherExpenses:    cfg.OtherExpenses,
		Hamali:           cfg.RouteCharges(),
		LedgerHamali:     cfg.LedgerRouteCharges(),
		Scheme:           cfg.PeriodScheme(),
		Routes:           cfg.RouteFilter(),
		Variant:          cfg.LedgerVariant(),
		PreviousBalances: cfg.Ledger.PreviousBalances,
		Corrections:      cfg.CorrectionTable(),
		RowsPerPage:      cfg.SummaryRowsPerPage,
		Concurrency:      cfg.MaxConcurrency,
	}
}

// newFileManager builds the file manager from the configuration.
func newFileManager(cfg *config.MainConfig) *utils.FileManager {
	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	fm.ArchiveOnSuccess = cfg.ArchiveOnSuccess
	fm.UseTimestampSubdirs = cfg.UseTimestampSubdirs
	return fm
}

// csvSettings returns the CSV settings of the configuration.
func csvSettings(cfg *config.MainConfig) csvparser.Settings {
	return csvparser.Settings{Delimiter: cfg.CSVDelimiter}
}

// =============================================================================
// INPUT
// =============================================================================

// readInput reads one shipment workbook or CSV export.
//
// PARAMETERS:
//   - path: The .xlsx or .csv file.
//   - required: Columns the file must carry.
//
// RETURNS:
//   - The rows of every sheet.
//   - A *validation.ColumnError for a missing column, or an error for an
//     unreadable or unsupported file.
func readInput(path string, required []string) (*types.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return xlsxparser.ReadWorkbook(path, required)
	case ".csv":
		return csvparser.ReadShipments(path, csvSettings(mainConfig), required)
	default:
		return nil, fmt.Errorf("unsupported input file %q: expected .xlsx or .csv", filepath.Base(path))
	}
}

// errorType classifies an error for the error log.
func errorType(err error) string {
	switch {
	case errors.Is(err, validation.ErrMissingColumn):
		return "MISSING_COLUMN"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	default:
		return "PROCESSING"
	}
}

// issueEntry converts an absorbed cell or skipped row into an error log entry.
func issueEntry(runID, file string, issue *validation.ValidationError) utils.ErrorLogEntry {
	return utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		RunID:        runID,
		FileName:     filepath.Base(file),
		ErrorType:    strings.ToUpper(issue.Severity) + ":" + issue.Rule,
		ErrorMessage: issue.Message,
		Sheet:        issue.Sheet,
		RowNumber:    issue.RowNumber,
		FieldName:    issue.Field,
		FieldValue:   issue.Value,
	}
}

// =============================================================================
// RUN
// =============================================================================

// runGeneration executes one document command end to end.
func runGeneration(ctx context.Context, g generation) error {
	cfg := mainConfig
	runID := uuid.New()
	log := logger.With("run_id", runID.String(), "command", g.command)

	summary := utils.ProcessingSummary{
		RunID:     runID.String(),
		Command:   g.command,
		StartTime: time.Now(),
	}
	var issues []utils.ErrorLogEntry

	fmt.Printf("=== Transport Challan & Ledger: %s ===\n", g.command)

	// =========================================================================
	// STEP 1: PREPARE DIRECTORIES
	// =========================================================================

	fm := newFileManager(cfg)
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	if cfg.ArchiveRetentionDays > 0 && !g.dryRun {
		maxAge := time.Duration(cfg.ArchiveRetentionDays) * 24 * time.Hour
		removed, err := utils.CleanOldArchives(cfg.OutputArchiveDir, maxAge)
		if err != nil {
			log.Warn("archive cleanup failed", "error", err)
		} else if removed > 0 {
			log.Info("old archives removed", "count", removed, "retention_days", cfg.ArchiveRetentionDays)
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := []string{g.file}
	if g.file == "" {
		found, err := fm.DiscoverInputFiles()
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
		files = found
	}
	if len(files) == 0 {
		fmt.Printf("No input files found in %s.\n", cfg.InputDir)
		return nil
	}
	summary.TotalFiles = len(files)
	fmt.Printf("Found %d file(s) to process\n", len(files))

	// fail records a fatal error, writes the logs and returns err.
	fail := func(file string, err error) error {
		summary.FailedFiles = len(files) - summary.SuccessfulFiles
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    file,
			ErrorMessage: err.Error(),
			ErrorType:    errorType(err),
		})
		issues = append(issues, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			RunID:        runID.String(),
			FileName:     filepath.Base(file),
			ErrorType:    errorType(err),
			ErrorMessage: err.Error(),
		})
		summary.EndTime = time.Now()
		writeRunLogs(cfg.OutputDir, issues, summary, log)
		log.Error("run failed", "file", file, "error", err)
		return err
	}

	// =========================================================================
	// STEP 3: READ AND NORMALIZE
	// =========================================================================

	var records []types.ShipmentRecord
	for _, file := range files {
		fileStart := time.Now()

		table, err := readInput(file, g.required)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(file), err)
			return fail(file, err)
		}

		conv := pipeline.ToRecords(table, log.With("file", filepath.Base(file)))
		records = append(records, conv.Records...)
		for _, issue := range conv.Issues.Errors {
			issues = append(issues, issueEntry(runID.String(), file, issue))
		}

		summary.TotalRows += conv.Stats.Rows
		summary.BadDates += conv.Stats.BadDates
		summary.BadNumbers += conv.Stats.BadNumbers
		summary.SkippedRows += conv.Stats.Skipped
		summary.SuccessfulFiles++
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   file,
			Rows:        conv.Stats.Records,
			ProcessTime: time.Since(fileStart),
		})

		log.Info("input read",
			"file", filepath.Base(file),
			"rows", conv.Stats.Rows,
			"records", conv.Stats.Records,
			"unknown_dates", conv.Stats.UnknownDates,
			"bad_dates", conv.Stats.BadDates,
			"bad_numbers", conv.Stats.BadNumbers,
		)
		fmt.Printf("  ✓ %s: %d row(s)\n", filepath.Base(file), conv.Stats.Records)
	}

	// =========================================================================
	// STEP 4: GENERATE
	// =========================================================================

	renderer, err := render.New(cfg.OutputFormat, cfg.CompanyName, cfg.GotenbergURL)
	if err != nil {
		return fail("", err)
	}

	opts := g.opts
	opts.RunID = runID
	res, err := g.run(pipeline.New(renderer, opts, log), ctx, records)
	if errors.Is(err, pipeline.ErrNoData) {
		fmt.Println("No data to process: no group could be formed from the input.")
		return nil
	}
	if err != nil {
		return fail("", err)
	}

	summary.Groups = res.Groups
	summary.Documents = len(res.Artifacts)

	if g.dryRun {
		fmt.Println("\nDry run, nothing written. Documents that would be produced:")
		for _, a := range res.Artifacts {
			fmt.Printf("  %s (%d bytes)\n", a.Path(), len(a.Data))
		}
		return nil
	}

	// =========================================================================
	// STEP 5: WRITE OUTPUT
	// =========================================================================

	output, err := writeOutput(fm, g, res)
	if err != nil {
		return fail("", err)
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	if !g.noBundle {
		if archived, err := fm.ArchiveOutputFile(output); err != nil {
			log.Warn("bundle archival failed", "bundle", output, "error", err)
		} else {
			log.Debug("bundle archived", "path", archived)
		}
	}

	for i := range summary.ProcessedFiles {
		info := &summary.ProcessedFiles[i]
		info.OutputFile = output
		info.Groups = res.Groups
		info.Documents = len(res.Artifacts)
		if g.file != "" {
			continue
		}
		archived, err := fm.ArchiveInputFile(info.InputFile)
		if err != nil {
			log.Warn("input archival failed", "file", info.InputFile, "error", err)
			continue
		}
		info.ArchivePath = archived
	}

	// =========================================================================
	// STEP 7: SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()
	writeRunLogs(cfg.OutputDir, issues, summary, log)

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Run ID:          %s\n", runID)
	fmt.Printf("Records:         %d\n", len(records))
	fmt.Printf("Groups:          %d\n", res.Groups)
	fmt.Printf("Documents:       %d\n", len(res.Artifacts))
	fmt.Printf("Total amount:    %s\n", res.Total.String())
	if n := res.Grouping.DroppedUnknownDate; n > 0 {
		fmt.Printf("Undated dropped: %d\n", n)
	}
	if n := res.Grouping.DroppedExcluded; n > 0 {
		fmt.Printf("Excluded:        %d\n", n)
	}
	fmt.Printf("Output:          %s\n", output)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))
	if len(issues) > 0 {
		fmt.Printf("\n%d absorbed cell(s) have been logged to the output directory.\n", len(issues))
	}
	return nil
}

// writeOutput writes the artifacts as a ZIP bundle, or as plain files when
// bundling is off, and returns the bundle path or output directory.
func writeOutput(fm *utils.FileManager, g generation, res *pipeline.Result) (string, error) {
	now := time.Now()
	if g.noBundle {
		subdir := strings.TrimSuffix(utils.BundleFileName(g.prefix, now), ".zip")
		if _, err := fm.WriteEntries(subdir, res.Entries()); err != nil {
			return "", err
		}
		return filepath.Join(fm.OutputDir, subdir), nil
	}
	return fm.WriteBundle(utils.BundleFileName(g.prefix, now), res.Entries())
}

// writeRunLogs writes the error log and the processing summary. Failures
// are logged and do not change the outcome of the run.
func writeRunLogs(dir string, issues []utils.ErrorLogEntry, summary utils.ProcessingSummary, log *slog.Logger) {
	if path, err := utils.WriteErrorLog(issues, dir); err != nil {
		log.Warn("error log not written", "error", err)
	} else if path != "" {
		log.Info("error log written", "path", path, "entries", len(issues))
	}
	if path, err := utils.WriteSummaryLog(summary, dir); err != nil {
		log.Warn("summary not written", "error", err)
	} else {
		log.Info("summary written", "path", path)
	}
}
