// Package data provides the core data model for pairwise name tournaments:
// candidate names, resolved matches, the tournament session aggregate, and
// the persistence and collaborator interfaces the controller depends on.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Error types for name validation and CSV import
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrDuplicateID      = errors.New("duplicate name ID")
	ErrRequiredField    = errors.New("required field missing")
	ErrCSVParsing       = errors.New("CSV parsing error")
	ErrValidationFailed = errors.New("name validation failed")
)

// Name is one candidate being ranked. Ratings and counters are mutated only
// by the tournament controller applying rating-engine output; names are
// never removed mid-session.
type Name struct {
	ID      string  `json:"id"`     // Unique identifier within the pool
	Label   string  `json:"label"`  // Display text shown to the voter
	Rating  float64 `json:"rating"` // Current Elo rating
	Matches int     `json:"matches"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Ties    int     `json:"ties"`
}

// WinRate returns wins over all resolved outcomes, zero when unplayed.
// Skipped matches count toward Matches but not toward any outcome.
func (n Name) WinRate() float64 {
	resolved := n.Wins + n.Losses + n.Ties
	if resolved == 0 {
		return 0
	}
	return float64(n.Wins) / float64(resolved)
}

// CSVConfig defines how to parse an input CSV file of candidate names
type CSVConfig struct {
	IDColumn    string `json:"id_column"`    // Column for the name ID (optional; derived from label when empty)
	LabelColumn string `json:"label_column"` // Column for the display label (required)
	HasHeader   bool   `json:"has_header"`   // Whether the CSV has a header row
	Delimiter   string `json:"delimiter"`    // Field separator (default comma)
}

// DefaultCSVConfig returns CSV parsing defaults
func DefaultCSVConfig() CSVConfig {
	return CSVConfig{
		IDColumn:    "id",
		LabelColumn: "name",
		HasHeader:   true,
		Delimiter:   ",",
	}
}

// CSVParseError records one rejected CSV row
type CSVParseError struct {
	RowNumber int    `json:"row_number"`
	Value     string `json:"value"`
	Message   string `json:"message"`
}

// Error implements the error interface
func (e CSVParseError) Error() string {
	return fmt.Sprintf("row %d (value: %q): %s", e.RowNumber, e.Value, e.Message)
}

// CSVParseResult contains the outcome of parsing a CSV pool file
type CSVParseResult struct {
	Names          []Name          `json:"names"`
	ParseErrors    []CSVParseError `json:"parse_errors,omitempty"`
	TotalRows      int             `json:"total_rows"`
	SuccessfulRows int             `json:"successful_rows"`
	Headers        []string        `json:"headers,omitempty"`
}

// LoadNamesFromCSV reads a candidate pool from a CSV file
func LoadNamesFromCSV(filename string, config CSVConfig) (*CSVParseResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", ErrCSVParsing, filename, err)
	}
	defer func() { _ = file.Close() }()

	return ParseNames(file, config)
}

// ParseNames reads a candidate pool from CSV data. Rows with empty labels or
// duplicate IDs are reported in ParseErrors and skipped; parsing only fails
// outright on malformed CSV or a missing label column.
func ParseNames(reader io.Reader, config CSVConfig) (*CSVParseResult, error) {
	csvReader := csv.NewReader(reader)
	if config.Delimiter != "" {
		csvReader.Comma = rune(config.Delimiter[0])
	}
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCSVParsing, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrCSVParsing)
	}

	result := &CSVParseResult{}

	idCol, labelCol := 0, 0
	rows := records
	if config.HasHeader {
		result.Headers = records[0]
		rows = records[1:]

		idCol, labelCol = -1, -1
		for i, header := range records[0] {
			switch strings.ToLower(strings.TrimSpace(header)) {
			case strings.ToLower(config.IDColumn):
				idCol = i
			case strings.ToLower(config.LabelColumn):
				labelCol = i
			}
		}
		if labelCol < 0 {
			return nil, fmt.Errorf("%w: label column %q not found in header", ErrCSVParsing, config.LabelColumn)
		}
	}

	seen := make(map[string]bool)
	for i, row := range rows {
		rowNum := i + 1
		if config.HasHeader {
			rowNum++
		}
		result.TotalRows++

		if labelCol >= len(row) {
			result.ParseErrors = append(result.ParseErrors, CSVParseError{
				RowNumber: rowNum, Message: "row has too few columns",
			})
			continue
		}

		label := strings.TrimSpace(row[labelCol])
		if label == "" {
			result.ParseErrors = append(result.ParseErrors, CSVParseError{
				RowNumber: rowNum, Message: "empty label",
			})
			continue
		}

		id := ""
		if idCol >= 0 && idCol < len(row) && idCol != labelCol {
			id = strings.TrimSpace(row[idCol])
		}
		if id == "" {
			id = slugify(label)
		}

		if seen[id] {
			result.ParseErrors = append(result.ParseErrors, CSVParseError{
				RowNumber: rowNum, Value: id, Message: "duplicate name ID",
			})
			continue
		}
		seen[id] = true

		result.Names = append(result.Names, Name{ID: id, Label: label})
		result.SuccessfulRows++
	}

	return result, nil
}

// NewName creates a validated candidate name
func NewName(id, label string) (Name, error) {
	id = strings.TrimSpace(id)
	label = strings.TrimSpace(label)

	if label == "" {
		return Name{}, fmt.Errorf("%w: label cannot be empty", ErrRequiredField)
	}
	if id == "" {
		id = slugify(label)
	}
	return Name{ID: id, Label: label}, nil
}

// slugify derives a stable lowercase identifier from a display label
func slugify(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
