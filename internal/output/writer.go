// Package output exports processed transactions as JSON for backup and
// inspection.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

// WriteOptions configures how the export is written.
type WriteOptions struct {
	MergeMode bool   // If true, load existing file and merge by transaction ID
	FilePath  string // Output path (empty = stdout)
}

// Export is the on-disk shape of a transaction export.
type Export struct {
	Transactions []*domain.PersistedTransaction `json:"transactions"`
}

// WriteExport serializes the export to JSON with 2-space indentation.
func WriteExport(export *Export, w io.Writer) error {
	if export == nil {
		return fmt.Errorf("export cannot be nil")
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export as JSON: %w", err)
	}

	return nil
}

// WriteExportToFile writes the export to file or stdout based on options.
func WriteExportToFile(export *Export, opts WriteOptions) (err error) {
	if export == nil {
		return fmt.Errorf("export cannot be nil")
	}

	if opts.MergeMode && opts.FilePath != "" {
		existing, err := LoadExport(opts.FilePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load existing export for merge: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Warning: merge mode requested but %s does not exist, creating new file\n", opts.FilePath)
		} else {
			export = mergeExports(existing, export)
		}
	}

	if opts.FilePath == "" {
		return WriteExport(export, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteExport(export, f); err != nil {
		return fmt.Errorf("failed to write export to %s: %w", opts.FilePath, err)
	}

	return nil
}

// LoadExport reads a previously written export file.
func LoadExport(path string) (*Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var export Export
	if err := json.NewDecoder(f).Decode(&export); err != nil {
		return nil, fmt.Errorf("failed to parse export file %s: %w", path, err)
	}
	return &export, nil
}

// mergeExports combines two exports, preferring the incoming record
// when both carry the same transaction ID. The result is sorted by
// date then creation time so merges are deterministic.
func mergeExports(existing, incoming *Export) *Export {
	byID := make(map[string]*domain.PersistedTransaction, len(existing.Transactions))
	order := make([]string, 0, len(existing.Transactions)+len(incoming.Transactions))

	for _, txn := range existing.Transactions {
		if _, seen := byID[txn.ID]; !seen {
			order = append(order, txn.ID)
		}
		byID[txn.ID] = txn
	}
	for _, txn := range incoming.Transactions {
		if _, seen := byID[txn.ID]; !seen {
			order = append(order, txn.ID)
		}
		byID[txn.ID] = txn
	}

	merged := &Export{Transactions: make([]*domain.PersistedTransaction, 0, len(order))}
	for _, id := range order {
		merged.Transactions = append(merged.Transactions, byID[id])
	}
	sort.SliceStable(merged.Transactions, func(i, j int) bool {
		a, b := merged.Transactions[i], merged.Transactions[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return merged
}
