// Package batch manages the set of uploaded files being prepared for one
// analysis run: parsing, column mapping, classification, validation and
// manual remapping.
package batch

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/casetrace/smart-import/internal/classify"
	"github.com/casetrace/smart-import/internal/mapping"
	"github.com/casetrace/smart-import/internal/parser"
	"github.com/casetrace/smart-import/internal/schema"
)

// File statuses.
const (
	StatusMapped = "mapped"
	StatusError  = "error"
)

// ParsedFile is one uploaded file after parsing, mapping, classification and
// validation. It is mutated only by remapping a single column, which re-runs
// classification and validation.
type ParsedFile struct {
	Name        string                  `json:"name"`
	RecordType  schema.RecordType       `json:"record_type"`
	TypeLabel   string                  `json:"type_label"`
	Headers     []string                `json:"headers"`
	Records     []parser.RawRecord      `json:"-"`
	Mappings    []mapping.ColumnMapping `json:"column_mappings"`
	Warnings    []classify.FieldWarning `json:"warnings"`
	Status      string                  `json:"status"`
	SHA256      string                  `json:"sha256"`
	RecordCount int                     `json:"record_count"`
}

// NormalizedRecords rewrites the file's raw records onto canonical field
// names using the current mappings.
func (f *ParsedFile) NormalizedRecords() []map[string]string {
	return mapping.Apply(f.Records, f.Mappings)
}

// Manager holds the current import batch. Mapping, classification and
// validation are file-local and pure, so concurrent uploads only contend on
// the files slice itself.
type Manager struct {
	mu     sync.Mutex
	files  []*ParsedFile
	logger *slog.Logger
}

// NewManager creates an empty batch manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{logger: logger}
}

// AddFile parses, maps, classifies and validates an uploaded file and adds it
// to the batch. A parse failure does not abort the batch: the file is kept
// with an error status and an empty record set so the caller can surface it.
func (m *Manager) AddFile(name string, content []byte, digest string) (*ParsedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.files {
		if f.Name == name {
			return nil, fmt.Errorf("file %q is already in the batch", name)
		}
	}

	table, err := parser.Parse(name, content)
	if err != nil {
		file := &ParsedFile{
			Name:       name,
			RecordType: schema.RecordTypeUnknown,
			TypeLabel:  "Unknown",
			Status:     StatusError,
			SHA256:     digest,
			Warnings: []classify.FieldWarning{{
				Field:    "",
				Message:  err.Error(),
				Severity: classify.SeverityError,
				Impact:   "file cannot be analyzed",
			}},
		}
		m.files = append(m.files, file)
		m.logger.Warn("file rejected by parser", "file", name, "error", err)
		return file, nil
	}

	file := &ParsedFile{
		Name:        name,
		Headers:     table.Headers,
		Records:     table.Records,
		Mappings:    mapping.MapColumns(table.Headers),
		SHA256:      digest,
		RecordCount: len(table.Records),
	}
	m.reclassify(file)
	m.files = append(m.files, file)

	m.logger.Info("file added to batch",
		"file", name,
		"record_type", file.RecordType,
		"records", file.RecordCount,
		"warnings", len(file.Warnings))

	return file, nil
}

// RemapColumn manually overrides one column's canonical field and re-runs
// classification and validation for that file. Repeating the same override is
// a no-op beyond the first application.
func (m *Manager) RemapColumn(fileName, header, canonicalField string) (*ParsedFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.find(fileName)
	if err != nil {
		return nil, err
	}
	if file.Status == StatusError && len(file.Records) == 0 && file.Headers == nil {
		return nil, fmt.Errorf("file %q failed to parse and cannot be remapped", fileName)
	}

	updated, err := mapping.Override(file.Mappings, header, canonicalField)
	if err != nil {
		return nil, err
	}
	file.Mappings = updated
	m.reclassify(file)

	m.logger.Info("column remapped",
		"file", fileName,
		"header", header,
		"canonical_field", canonicalField,
		"record_type", file.RecordType)

	return file, nil
}

// Remove discards one file from the batch.
func (m *Manager) Remove(fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.files {
		if f.Name == fileName {
			m.files = append(m.files[:i], m.files[i+1:]...)
			m.logger.Info("file removed from batch", "file", fileName)
			return nil
		}
	}
	return fmt.Errorf("no file named %q in the batch", fileName)
}

// Clear discards every file in the batch.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = nil
	m.logger.Info("batch cleared")
}

// Files returns the batch contents in insertion order.
func (m *Manager) Files() []*ParsedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := make([]*ParsedFile, len(m.files))
	copy(files, m.files)
	return files
}

// CheckAnalyzable is the precondition for the analysis step: it fails while
// any file in the batch carries an unresolved error-severity warning.
func (m *Manager) CheckAnalyzable() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.files) == 0 {
		return fmt.Errorf("batch is empty")
	}
	for _, f := range m.files {
		if f.Status == StatusError {
			return fmt.Errorf("file %q has unresolved error warnings", f.Name)
		}
	}
	return nil
}

func (m *Manager) find(fileName string) (*ParsedFile, error) {
	for _, f := range m.files {
		if f.Name == fileName {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no file named %q in the batch", fileName)
}

// reclassify recomputes type, warnings and status from the current mappings.
func (m *Manager) reclassify(file *ParsedFile) {
	file.RecordType, file.TypeLabel = classify.Classify(file.Mappings)
	file.Warnings = classify.Validate(file.RecordType, file.Mappings)
	if classify.HasBlocking(file.Warnings) {
		file.Status = StatusError
	} else {
		file.Status = StatusMapped
	}
}
