// Package csvrows reads bulk link-creation rows from CSV.
package csvrows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bnema/dubco-cli/internal/domain"
)

var ErrMissingURLColumn = errors.New("csv header has no url column")

// Row is one data row. Number is the 1-based line in the file, so the first
// data row is 2.
type Row struct {
	Number  int
	Request domain.CreateLinkRequest
	Err     error
}

func (r Row) Valid() bool {
	return r.Err == nil
}

type Result struct {
	Rows []Row
}

func (r Result) Valid() []Row {
	var rows []Row
	for _, row := range r.Rows {
		if row.Valid() {
			rows = append(rows, row)
		}
	}
	return rows
}

func (r Result) Invalid() []Row {
	var rows []Row
	for _, row := range r.Rows {
		if !row.Valid() {
			rows = append(rows, row)
		}
	}
	return rows
}

func (r Result) Requests() []domain.CreateLinkRequest {
	valid := r.Valid()
	requests := make([]domain.CreateLinkRequest, 0, len(valid))
	for _, row := range valid {
		requests = append(requests, row.Request)
	}
	return requests
}

func ParseFile(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open csv %q: %w", path, err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a header row followed by data rows. Header names are matched
// case-insensitively. Rows with a bad url are kept and carry Err.
func Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, errors.New("csv file is empty")
	}
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}

	columns := make([]string, len(header))
	hasURL := false
	for i, name := range header {
		columns[i] = normalizeColumn(name)
		if columns[i] == "url" {
			hasURL = true
		}
	}
	if !hasURL {
		return Result{}, ErrMissingURLColumn
	}

	var result Result
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blank(record) {
			continue
		}

		fields := make(map[string]string, len(columns))
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			if value = strings.TrimSpace(value); value != "" {
				fields[columns[i]] = value
			}
		}

		req := toRequest(fields)
		result.Rows = append(result.Rows, Row{Number: line, Request: req, Err: req.Validate()})
	}

	return result, nil
}

func toRequest(fields map[string]string) domain.CreateLinkRequest {
	externalID := fields["externalid"]
	if externalID == "" {
		externalID = fields["external_id"]
	}
	tags := fields["tags"]
	if tags == "" {
		tags = fields["tag"]
	}

	return domain.CreateLinkRequest{
		URL:         fields["url"],
		Key:         fields["key"],
		Domain:      fields["domain"],
		ExternalID:  externalID,
		TagNames:    SplitTags(tags),
		Comments:    fields["comments"],
		UTMSource:   fields["utm_source"],
		UTMMedium:   fields["utm_medium"],
		UTMCampaign: fields["utm_campaign"],
		UTMTerm:     fields["utm_term"],
		UTMContent:  fields["utm_content"],
	}
}

// SplitTags splits a tag cell on "," or "|".
func SplitTags(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' })
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.ToLower(strings.TrimSpace(name))
}

func blank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
