package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned when a workbook has no sheets.
var ErrNoSheet = errors.New("importer: workbook has no sheets")

// ReadXLSX reads the first sheet of a workbook as key/value rows. A row with three
// cells is read as category, key and value.
func ReadXLSX(r io.Reader) (map[string]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return collectRows(rows), nil
}

// ReadCSV reads key/value rows. Semicolon and comma separators are detected from the
// first line.
func ReadCSV(r io.Reader) (map[string]map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectSeparator(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return collectRows(rows), nil
}

// ReadDocument picks the reader from the content type: CSV, a JSON object of
// extracted fields, or an XLSX workbook by default.
func ReadDocument(r io.Reader, contentType string) (map[string]map[string]string, error) {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "csv"), strings.HasPrefix(contentType, "text/plain"):
		return ReadCSV(r)
	case strings.Contains(contentType, "json"):
		return ReadJSON(r)
	}
	return ReadXLSX(r)
}

// ReadJSON reads an extraction object. Top-level scalars go under the empty category
// and nested objects are read as categories. Other value kinds are skipped.
func ReadJSON(r io.Reader) (map[string]map[string]string, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	out := make(map[string]map[string]string)
	put := func(category, key string, value any) {
		text, ok := scalarText(value)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return
		}
		if out[category] == nil {
			out[category] = make(map[string]string)
		}
		out[category][key] = text
	}
	for key, value := range doc {
		nested, ok := value.(map[string]any)
		if !ok {
			put("", key, value)
			continue
		}
		category := strings.TrimSpace(key)
		for inner, v := range nested {
			put(category, inner, v)
		}
	}
	return out, nil
}

func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return "", false
		}
		// Decimal comma so ParseNumber never reads the point as a thousands separator.
		return strings.Replace(strconv.FormatFloat(f, 'f', -1, 64), ".", ",", 1), true
	}
	return "", false
}

func detectSeparator(data []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if scanner.Scan() && strings.Count(scanner.Text(), ";") > 0 {
		return ';'
	}
	return ','
}

// collectRows groups rows by category; two-cell rows go under the empty category.
func collectRows(rows [][]string) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, row := range rows {
		var category, key, value string
		switch {
		case len(row) >= 3 && strings.TrimSpace(row[2]) != "":
			category, key, value = row[0], row[1], row[2]
		case len(row) >= 2:
			key, value = row[0], row[1]
		default:
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		category = strings.TrimSpace(category)
		if out[category] == nil {
			out[category] = make(map[string]string)
		}
		out[category][key] = strings.TrimSpace(value)
	}
	return out
}
