package bankformat

import (
	"encoding/csv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"moneta/internal/errors"
)

// DetectThreshold is the minimum score a registry schema must reach for
// detection to pick it over the generic fallback.
const DetectThreshold = 15

var candidateDelimiters = []rune{',', ';', '\t'}

// Detection is the outcome of matching raw import bytes against the registry.
type Detection struct {
	Schema    *Schema
	Columns   Columns
	Delimiter rune
	Header    []string
	Score     int
}

// Detect identifies the schema for a raw CSV payload. A non-empty hint
// bypasses scoring and forces the named schema; otherwise every registry
// schema is scored against the header under each candidate delimiter and
// the best match above the threshold wins. Ties keep registry order. A
// registry schema only qualifies when its description column is present and
// its date layouts accept the first data row; otherwise it falls through so
// that lookalike headers land on the generic fallback. When nothing clears
// the threshold the generic fallback is tried, and if even its fuzzy roles
// cannot resolve the payload is rejected.
func Detect(raw []byte, hint string) (*Detection, error) {
	content := DecodeHeader(raw)
	headerLine := firstLine(content)
	if strings.TrimSpace(headerLine) == "" {
		return nil, errors.ErrEmptyImport
	}

	if hint != "" {
		return detectHinted(headerLine, hint)
	}

	dataLine := firstDataLine(content)

	var best *Detection
	for _, delim := range candidateDelimiters {
		header, err := splitHeader(headerLine, delim)
		if err != nil || len(header) < 2 {
			continue
		}
		for _, schema := range Registry {
			score := schema.score(header, delim)
			if score < DetectThreshold {
				continue
			}
			cols, ok := schema.Resolve(header)
			if !ok || cols.Description < 0 {
				continue
			}
			if !dateLayoutMatches(schema, dataLine, delim, cols.Date) {
				continue
			}
			if best == nil || score > best.Score {
				best = &Detection{Schema: schema, Columns: cols, Delimiter: delim, Header: header, Score: score}
			}
		}
	}
	if best != nil {
		return best, nil
	}

	return detectGeneric(headerLine)
}

func detectHinted(headerLine, hint string) (*Detection, error) {
	schema, ok := Lookup(hint)
	if !ok {
		return nil, errors.WithMessage(errors.ErrUnrecognizedFormat, "unknown format hint: "+hint)
	}
	if schema.Key == GenericKey {
		return detectGeneric(headerLine)
	}
	header, err := splitHeader(headerLine, schema.Delimiter)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUnrecognizedFormat, err)
	}
	cols, ok := schema.Resolve(header)
	if !ok {
		return nil, errors.WithMessage(errors.ErrUnrecognizedFormat, "header does not match format "+hint)
	}
	return &Detection{
		Schema:    schema,
		Columns:   cols,
		Delimiter: schema.Delimiter,
		Header:    header,
		Score:     schema.score(header, schema.Delimiter),
	}, nil
}

// detectGeneric applies the fuzzy fallback. The delimiter producing the
// widest header is tried first so that exotic single-column splits lose to
// real tabular layouts.
func detectGeneric(headerLine string) (*Detection, error) {
	bestWidth := 0
	var bestHeader []string
	var bestDelim rune
	for _, delim := range candidateDelimiters {
		header, err := splitHeader(headerLine, delim)
		if err != nil {
			continue
		}
		if len(header) > bestWidth {
			bestWidth = len(header)
			bestHeader = header
			bestDelim = delim
		}
	}
	if bestWidth < 2 {
		return nil, errors.ErrUnrecognizedFormat
	}
	cols, ok := resolveGeneric(bestHeader)
	if !ok {
		return nil, errors.ErrUnrecognizedFormat
	}
	return &Detection{Schema: Generic, Columns: cols, Delimiter: bestDelim, Header: bestHeader}, nil
}

// DecodeHeader converts raw bytes to a string, falling back to Latin-1 when
// the payload is not valid UTF-8. Swiss and German bank exports commonly
// ship ISO-8859-1.
func DecodeHeader(raw []byte) string {
	if utf8.Valid(raw) {
		return strings.TrimPrefix(string(raw), "\ufeff")
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func firstLine(content string) string {
	if idx := strings.IndexAny(content, "\r\n"); idx >= 0 {
		return content[:idx]
	}
	return content
}

// firstDataLine returns the first non-blank line after the header, or ""
// for header-only payloads.
func firstDataLine(content string) string {
	idx := strings.IndexAny(content, "\r\n")
	if idx < 0 {
		return ""
	}
	for _, line := range strings.FieldsFunc(content[idx:], func(r rune) bool { return r == '\r' || r == '\n' }) {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

// dateLayoutMatches reports whether the schema's date layouts accept the
// date cell of the first data row. Header-only payloads and rows the CSV
// reader cannot split are not held against the schema.
func dateLayoutMatches(schema *Schema, dataLine string, delim rune, dateCol int) bool {
	if dataLine == "" {
		return true
	}
	cells, err := splitHeader(dataLine, delim)
	if err != nil || dateCol >= len(cells) {
		return true
	}
	cell := strings.TrimSpace(cells[dateCol])
	if cell == "" {
		return true
	}
	for _, layout := range schema.DateLayouts {
		if _, err := time.Parse(layout, cell); err == nil {
			return true
		}
	}
	return false
}

func splitHeader(line string, delim rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	return r.Read()
}
