package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ilift/ilift-backend/internal/catalog"
	"github.com/ilift/ilift-backend/pkg/logger"
)

func newImportCmd(open catalogOpener) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert products from a content store export",
		Long: `Reads a content store export and upserts every product document by slug.
The export may be a JSON array, an object with a "result" array, or
newline-delimited JSON. Use "-" to read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, closeIn, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer closeIn()

			docs, err := decodeExport(in)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logg := logger.New(logger.Options{ServiceName: "catalogctl", Output: cmd.ErrOrStderr()})
			svc, cleanup, err := open(ctx, logg)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			result, err := svc.Import(ctx, docs)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "upserted %d products, skipped %d\n", result.Upserted, len(result.Skipped))
			for _, skip := range result.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s (%s): %s\n", skip.ID, skip.Slug, skip.Reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "export file path, or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open export: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// decodeExport accepts the three shapes the content store can emit.
func decodeExport(r io.Reader) ([]catalog.CatalogDocument, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("export is empty")
	}

	switch trimmed[0] {
	case '[':
		var docs []catalog.CatalogDocument
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, fmt.Errorf("decode export array: %w", err)
		}
		return docs, nil
	case '{':
		var wrapped struct {
			Result []catalog.CatalogDocument `json:"result"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Result != nil {
			return wrapped.Result, nil
		}
		return decodeLines(trimmed)
	default:
		return nil, fmt.Errorf("unrecognized export format")
	}
}

func decodeLines(data []byte) ([]catalog.CatalogDocument, error) {
	var docs []catalog.CatalogDocument
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var doc catalog.CatalogDocument
		if err := json.Unmarshal(text, &doc); err != nil {
			return nil, fmt.Errorf("decode export line %d: %w", line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan export: %w", err)
	}
	return docs, nil
}
