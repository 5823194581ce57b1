package backlog

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	colDelivered = 0
	colShot      = 1
	colPromptID  = 2
	colPrompt    = 3
	minColumns   = 4
)

type tabularFormat struct{}

// tabularRow is one parsed record plus the byte span of its text in the
// file, excluding blank lines before it and the line terminator after it.
type tabularRow struct {
	fields []string
	start  int
	end    int
}

func (r tabularRow) isPending() bool {
	return len(r.fields) >= minColumns && strings.EqualFold(strings.TrimSpace(r.fields[colDelivered]), "false")
}

func (r tabularRow) isDelivered() bool {
	return len(r.fields) >= minColumns && strings.EqualFold(strings.TrimSpace(r.fields[colDelivered]), "true")
}

func (r tabularRow) prompt() string {
	return strings.TrimSpace(r.fields[colPrompt])
}

func (tabularFormat) kind() Kind { return KindTabular }

func (tabularFormat) pending(data []byte) ([]string, error) {
	rows, err := scanTabular(data)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.isPending() {
			out = append(out, r.prompt())
		}
	}
	return out, nil
}

func (tabularFormat) markDelivered(data []byte, prompt string) ([]byte, bool, error) {
	rows, err := scanTabular(data)
	if err != nil {
		return nil, false, err
	}
	target := strings.TrimSpace(prompt)
	for _, r := range rows {
		if !r.isPending() || r.prompt() != target {
			continue
		}
		fields := append([]string(nil), r.fields...)
		fields[colDelivered] = "true"
		encoded, err := encodeRecord(fields)
		if err != nil {
			return nil, false, err
		}
		out := make([]byte, 0, len(data)+len(encoded))
		out = append(out, data[:r.start]...)
		out = append(out, encoded...)
		out = append(out, data[r.end:]...)
		return out, true, nil
	}
	return nil, false, nil
}

func (tabularFormat) deliveredCount(data []byte) (int, error) {
	rows, err := scanTabular(data)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range rows {
		if r.isDelivered() {
			n++
		}
	}
	return n, nil
}

// scanTabular returns the data rows of a CSV backlog; the header is dropped.
func scanTabular(data []byte) ([]tabularRow, error) {
	r := newReader(bytes.NewReader(data))
	rows := make([]tabularRow, 0, 16)
	headerSeen := false
	prev := 0
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv row: %w", err)
		}
		offset := int(r.InputOffset())
		start, end := recordSpan(data, prev, offset)
		prev = offset

		if isBlankRecord(fields) {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		rows = append(rows, tabularRow{fields: fields, start: start, end: end})
	}
	return rows, nil
}

func recordSpan(data []byte, from, to int) (int, int) {
	start, end := from, to
	for start < end && (data[start] == '\n' || data[start] == '\r') {
		start++
	}
	if end > start && data[end-1] == '\n' {
		end--
	}
	if end > start && data[end-1] == '\r' {
		end--
	}
	return start, end
}

func isBlankRecord(fields []string) bool {
	return len(fields) == 1 && strings.TrimSpace(fields[0]) == ""
}

func newReader(src io.Reader) *csv.Reader {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	// Rows written as `false, 1, P1, "a, b"` still open a quote after the space.
	r.TrimLeadingSpace = true
	return r
}

// decodeRecord parses one CSV row.
func decodeRecord(line string) ([]string, error) {
	fields, err := newReader(strings.NewReader(line)).Read()
	if err != nil {
		return nil, fmt.Errorf("decode csv row: %w", err)
	}
	return fields, nil
}

// encodeRecord renders fields as one CSV row without a line terminator,
// quoting only fields that need it.
func encodeRecord(fields []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return "", fmt.Errorf("encode csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("encode csv row: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
