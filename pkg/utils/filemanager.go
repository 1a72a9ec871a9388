// =============================================================================
// Transport Challan & Ledger - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the generators:
//   - Input discovery (workbooks and CSV exports)
//   - Bundling generated documents into ZIP archives
//   - File archival (moving processed inputs, copying bundles)
//   - Error log and processing summary files
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to input_archive after a successful run
//   - Bundles are copied to output_archive for long-term storage
//   - Failed inputs remain in their original location
//   - Error logs are created in the output directory
//
// BUNDLE LAYOUT:
//   Entries keep their relative paths, so a challan bundle unpacks to
//   {Month_YYYY}/{FROM}_TO_{TO}/file and a ledger bundle to
//   {consignor}/{period}/file.
//
// =============================================================================

package utils

import (
	"archive/zip"
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// InputPatterns are the file patterns scanned in the input directory.
var InputPatterns = []string{"*.xlsx", "*.csv"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the generators.
type FileManager struct {
	// InputDir is the directory where input workbooks are placed.
	InputDir string

	// OutputDir is the directory where bundles and logs are written.
	OutputDir string

	// InputArchiveDir is the directory for archived input files.
	InputArchiveDir string

	// OutputArchiveDir is the directory for archived bundles.
	OutputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in archives.
	// Example: input_archive/2024/01/15/shipments.xlsx
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether to archive files after a successful run.
	ArchiveOnSuccess bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir, outputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:            inputDir,
		OutputDir:           outputDir,
		InputArchiveDir:     inputArchiveDir,
		OutputArchiveDir:    outputArchiveDir,
		UseTimestampSubdirs: false,
		ArchiveOnSuccess:    true,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.InputDir,
		fm.OutputDir,
		fm.InputArchiveDir,
		fm.OutputArchiveDir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for files matching any of
// the patterns. Office lock files ("~$book.xlsx") are skipped.
//
// PARAMETERS:
//   - patterns: Glob patterns to match. Defaults to InputPatterns.
//
// RETURNS:
//   - The matching file paths, sorted.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverInputFiles(patterns ...string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = InputPatterns
	}

	seen := make(map[string]bool)
	var result []string
	for _, pattern := range patterns {
		files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan input directory: %w", err)
		}
		for _, file := range files {
			if seen[file] || strings.HasPrefix(filepath.Base(file), "~$") {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			seen[file] = true
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// BUNDLES
// =============================================================================

// Entry is one file of a bundle, addressed by its slash-separated path.
type Entry struct {
	Path string
	Data []byte
}

// WriteZip writes entries to w as a ZIP archive, in the order given.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		name := path.Clean(strings.ReplaceAll(e.Path, "\\", "/"))
		if name == ".." || strings.HasPrefix(name, "../") || strings.HasPrefix(name, "/") {
			return fmt.Errorf("bundle entry %q escapes the archive", e.Path)
		}
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
		if _, err := f.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return zw.Close()
}

// BundleFileName returns "{prefix}_{YYYYMMDD_HHMMSS}.zip".
func BundleFileName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.zip", prefix, now.Format("20060102_150405"))
}

// WriteBundle writes entries as a ZIP archive named name in the output
// directory and returns its path.
func (fm *FileManager) WriteBundle(name string, entries []Entry) (string, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, entries); err != nil {
		return "", err
	}

	bundlePath := filepath.Join(fm.OutputDir, name)
	if err := os.WriteFile(bundlePath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write bundle: %w", err)
	}
	return bundlePath, nil
}

// WriteEntries writes entries as plain files under the output directory's
// subdir and returns the paths written.
func (fm *FileManager) WriteEntries(subdir string, entries []Entry) ([]string, error) {
	root := filepath.Join(fm.OutputDir, subdir)
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		name := path.Clean(strings.ReplaceAll(e.Path, "\\", "/"))
		if name == ".." || strings.HasPrefix(name, "../") || strings.HasPrefix(name, "/") {
			return paths, fmt.Errorf("entry %q escapes the output directory", e.Path)
		}
		target := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return paths, fmt.Errorf("failed to create directory for %s: %w", e.Path, err)
		}
		if err := os.WriteFile(target, e.Data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", e.Path, err)
		}
		paths = append(paths, target)
	}
	return paths, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an input file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.InputArchiveDir, filePath)

	archiveDir := filepath.Dir(archivePath)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// ArchiveOutputFile copies a bundle to the archive directory.
//
// NOTE: Bundles are copied, not moved, so they remain in the output directory.
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(fm.OutputArchiveDir, filePath)

	archiveDir := filepath.Dir(archivePath)
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(archiveDir, filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := time.Now()
		subDir := filepath.Join(
			archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
		return filepath.Join(subDir, fileName)
	}

	return filepath.Join(archiveDir, fileName)
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	RunID        string
	FileName     string
	ErrorType    string
	ErrorMessage string
	Sheet        string
	RowNumber    int
	FieldName    string
	FieldValue   string
}

// WriteErrorLog writes error entries to a log file.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to log.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	timestamp := time.Now().Format("20060102_150405")
	logFileName := fmt.Sprintf("error_log_%s.txt", timestamp)
	logPath := filepath.Join(outputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	header := fmt.Sprintf("Transport Challan & Ledger - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		time.Now().Format("2006-01-02 15:04:05"),
		len(entries))
	writer.WriteString(header)

	for i, entry := range entries {
		entryStr := fmt.Sprintf("Error #%d\n"+
			"  Timestamp:      %s\n"+
			"  File:           %s\n"+
			"  Error Type:     %s\n"+
			"  Message:        %s\n",
			i+1,
			entry.Timestamp.Format("2006-01-02 15:04:05"),
			entry.FileName,
			entry.ErrorType,
			entry.ErrorMessage)

		if entry.RunID != "" {
			entryStr += fmt.Sprintf("  Run ID:         %s\n", entry.RunID)
		}
		if entry.Sheet != "" {
			entryStr += fmt.Sprintf("  Sheet:          %s\n", entry.Sheet)
		}
		if entry.RowNumber > 0 {
			entryStr += fmt.Sprintf("  Row Number:     %d\n", entry.RowNumber)
		}
		if entry.FieldName != "" {
			entryStr += fmt.Sprintf("  Field:          %s\n", entry.FieldName)
		}
		if entry.FieldValue != "" {
			entryStr += fmt.Sprintf("  Value:          %s\n", entry.FieldValue)
		}

		entryStr += "\n"
		writer.WriteString(entryStr)
	}

	footer := "================================================================================\n" +
		"End of Error Log\n"
	writer.WriteString(footer)

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID            string
	Command          string
	StartTime        time.Time
	EndTime          time.Time
	TotalFiles       int
	SuccessfulFiles  int
	FailedFiles      int
	TotalRows        int
	BadDates         int
	BadNumbers       int
	SkippedRows      int
	Groups           int
	Documents        int
	ProcessedFiles   []ProcessedFileInfo
	FailedFilesList  []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	Rows        int
	Groups      int
	Documents   int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	summaryFileName := fmt.Sprintf("processing_summary_%s.txt", timestamp)
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	header := fmt.Sprintf("Transport Challan & Ledger - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Command:        %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Total Rows:         %d\n"+
		"  Unreadable Dates:   %d\n"+
		"  Unreadable Numbers: %d\n"+
		"  Skipped Rows:       %d\n"+
		"  Groups:             %d\n"+
		"  Documents:          %d\n\n",
		summary.RunID,
		summary.Command,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalRows,
		summary.BadDates,
		summary.BadNumbers,
		summary.SkippedRows,
		summary.Groups,
		summary.Documents)
	writer.WriteString(header)

	if len(summary.ProcessedFiles) > 0 {
		writer.WriteString("Successful Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, pf := range summary.ProcessedFiles {
			writer.WriteString(fmt.Sprintf("  Input:        %s\n", pf.InputFile))
			writer.WriteString(fmt.Sprintf("  Output:       %s\n", pf.OutputFile))
			if pf.ArchivePath != "" {
				writer.WriteString(fmt.Sprintf("  Archived To:  %s\n", pf.ArchivePath))
			}
			writer.WriteString(fmt.Sprintf("  Rows:         %d\n", pf.Rows))
			writer.WriteString(fmt.Sprintf("  Groups:       %d\n", pf.Groups))
			writer.WriteString(fmt.Sprintf("  Documents:    %d\n", pf.Documents))
			writer.WriteString(fmt.Sprintf("  Process Time: %s\n\n", pf.ProcessTime.String()))
		}
	}

	if len(summary.FailedFilesList) > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, ff := range summary.FailedFilesList {
			writer.WriteString(fmt.Sprintf("  File:  %s\n", ff.InputFile))
			writer.WriteString(fmt.Sprintf("  Error: %s\n\n", ff.ErrorMessage))
		}
	}

	footer := "================================================================================\n" +
		"End of Summary\n"
	writer.WriteString(footer)

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than maxAge.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
