package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/policyhub-api/internal/ingest"
	"github.com/spf13/cobra"
)

// sniffLen matches the number of leading bytes the server inspects.
const sniffLen = 3072

type importOptions struct {
	fileType string
	strict   bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a CSV or XLSX policy file directly into the configured database",
		Long: "Import runs the ingestion pipeline in this process and prints the JSON report.\n" +
			"Rows that fail are listed in the report and do not stop the import.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.fileType, "type", "", "file type (csv or xlsx), detected from the extension when empty")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with a validation error code when any row fails")
	return cmd
}

func runImport(cmd *cobra.Command, root *rootOptions, opts importOptions, path string) error {
	ctx := cmd.Context()

	fileType := ingest.FileType(opts.fileType)
	if opts.fileType == "" {
		ft, err := ingest.FileTypeFromName(path)
		if err != nil {
			return withCode(exitUsage, err)
		}
		fileType = ft
	}

	if err := sniffFile(path, fileType); err != nil {
		return err
	}

	cfg, log, err := root.loadConfig(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	stores, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	report, err := ingest.NewPipeline(stores, log).ProcessFile(ctx, path, fileType)
	if err != nil {
		return withCode(exitValidation, err)
	}

	if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}

	if opts.strict && len(report.Errors) > 0 {
		return withCode(exitValidation, fmt.Errorf("%d of %d rows failed", len(report.Errors), report.TotalRecords))
	}
	return nil
}

// sniffFile rejects files whose content does not match fileType before any
// database work starts.
func sniffFile(path string, fileType ingest.FileType) error {
	f, err := os.Open(path)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("failed to open %s: %w", path, err))
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return withCode(exitUsage, fmt.Errorf("failed to read %s: %w", path, err))
	}

	if err := ingest.SniffContent(head[:n], fileType); err != nil {
		return withCode(exitValidation, err)
	}
	return nil
}
