package sheet

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

var (
	lineBreak = regexp.MustCompile(`\r?\n`)
	utf8BOM   = []byte("\xef\xbb\xbf")
)

// Classify decides the wire shape of a response body. A JSON content type is
// parsed as JSON first; any other body is still tried as JSON because Apps
// Script endpoints often answer text/plain. Bodies that are not JSON are
// delimited text. A leading UTF-8 byte order mark is ignored.
func Classify(contentType string, body []byte) Payload {
	body = bytes.TrimPrefix(body, utf8BOM)

	if strings.Contains(strings.ToLower(contentType), "application/json") {
		if value, err := decodeJSON(body); err == nil {
			return fromJSON(value)
		}
		return delimited(string(body))
	}

	if value, err := decodeJSON(body); err == nil {
		return fromJSON(value)
	}

	return delimited(string(body))
}

// Records converts any payload variant into raw records.
func (p Payload) Records(collections []string) []Record {
	switch p.Shape {
	case ShapeArray:
		return arrayRecords(p.Array)
	case ShapeObject:
		for _, key := range collections {
			if rows, ok := p.Object[key].([]any); ok && len(rows) > 0 {
				return arrayRecords(rows)
			}
		}
		return []Record{}
	case ShapeDelimited:
		return ParseDelimited(p.Text)
	default:
		return []Record{}
	}
}

// ParseDelimited splits TSV/CSV text into positional records. The delimiter
// is taken from the first line: tab wins over comma, tab is the default.
// Quoting is not supported and no header row is skipped.
func ParseDelimited(text string) []Record {
	var lines []string
	for _, line := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return []Record{}
	}

	sep := "\t"
	if !strings.Contains(lines[0], "\t") && strings.Contains(lines[0], ",") {
		sep = ","
	}

	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		parts := strings.Split(line, sep)
		values := make([]any, len(parts))
		for i, part := range parts {
			values[i] = strings.TrimSpace(part)
		}
		records = append(records, Record{Values: values})
	}

	return records
}

func decodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}

	return value, nil
}

func fromJSON(value any) Payload {
	switch v := value.(type) {
	case []any:
		return Payload{Shape: ShapeArray, Array: v}
	case map[string]any:
		return Payload{Shape: ShapeObject, Object: v}
	case string:
		return delimited(v)
	default:
		return Payload{Shape: ShapeEmpty}
	}
}

func delimited(text string) Payload {
	if strings.TrimSpace(text) == "" {
		return Payload{Shape: ShapeEmpty}
	}
	return Payload{Shape: ShapeDelimited, Text: text}
}

func arrayRecords(rows []any) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		switch v := row.(type) {
		case map[string]any:
			records = append(records, Record{Fields: v})
		case []any:
			records = append(records, Record{Values: v})
		default:
			records = append(records, Record{Fields: map[string]any{}})
		}
	}
	return records
}
