// Package render formats the results of a batch for display.
package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/canonical/sqlbatch/internal/executor"
	"github.com/canonical/sqlbatch/internal/rest/types"
)

// Format is an output format for a batch.
type Format string

const (
	// FormatText draws each result set as a table, the way the results view shows it.
	FormatText Format = "text"

	// FormatCSV writes each result set as CSV records.
	FormatCSV Format = "csv"

	// FormatJSON writes the batch in its wire form.
	FormatJSON Format = "json"

	// FormatYAML writes the batch in its wire form.
	FormatYAML Format = "yaml"
)

// ErrorSeparator precedes every failed statement in text output.
const ErrorSeparator = "\n--------------\nError in query:\n"

// Formats returns the names of the supported formats.
func Formats() []string {
	return []string{string(FormatText), string(FormatCSV), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case "", FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}

	return "", fmt.Errorf("Invalid format %q, must be one of %s", name, strings.Join(Formats(), ", "))
}

// Write renders batch to w in the given format.
func Write(w io.Writer, format Format, batch executor.Batch) error {
	switch format {
	case FormatText, "":
		return Text(w, batch)
	case FormatCSV:
		return CSV(w, batch)
	case FormatJSON:
		return JSON(w, batch)
	case FormatYAML:
		return YAML(w, batch)
	}

	return fmt.Errorf("Unsupported format %q", format)
}

// Value renders a single column value.
func Value(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(value)
	case time.Time:
		return value.Format(time.RFC3339)
	default:
		return fmt.Sprint(value)
	}
}

// Text renders every failed statement and every result set with rows.
// Statements that succeeded without rows print nothing.
func Text(w io.Writer, batch executor.Batch) error {
	var out strings.Builder
	for _, r := range batch {
		if r.HasError() {
			out.WriteString(ErrorSeparator)
			out.WriteString(r.Query + "\n")
			out.WriteString(r.Err.Error())

			continue
		}

		if !r.HasRows() {
			continue
		}

		if r.MenuMode {
			out.WriteString("\n" + r.Query + "\n")
		}

		out.WriteString("\n" + Table(r.Columns, r.Rows))
	}

	_, err := io.WriteString(w, out.String())

	return err
}

// Table draws a bordered table with the column names as header. There is no trailing newline.
func Table(columns []string, rows [][]any) string {
	buf := &bytes.Buffer{}

	table := tablewriter.NewWriter(buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(columns)

	for _, row := range rows {
		table.Append(formatRow(row))
	}

	table.Render()

	return strings.TrimRight(buf.String(), "\n")
}

func formatRow(row []any) []string {
	values := make([]string, len(row))
	for i, v := range row {
		values[i] = Value(v)
	}

	return values
}

// CSV writes each result set as a header record followed by its rows, with an empty line between
// result sets. A failed statement is written as an "ERROR" record holding the query and the error.
func CSV(w io.Writer, batch executor.Batch) error {
	writer := csv.NewWriter(w)

	first := true
	for _, r := range batch {
		if !r.Visible() {
			continue
		}

		if !first {
			writer.Flush()

			_, err := io.WriteString(w, "\n")
			if err != nil {
				return err
			}
		}

		first = false

		if r.HasError() {
			err := writer.Write([]string{"ERROR", r.Query, r.Err.Error()})
			if err != nil {
				return fmt.Errorf("Failed to write CSV record: %w", err)
			}

			continue
		}

		err := writer.Write(r.Columns)
		if err != nil {
			return fmt.Errorf("Failed to write CSV header: %w", err)
		}

		for _, row := range r.Rows {
			err := writer.Write(formatRow(row))
			if err != nil {
				return fmt.Errorf("Failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()

	return writer.Error()
}

func wireBatch(batch executor.Batch) types.SQLBatch {
	return types.SQLBatch{Status: types.BatchFinished, Results: batch.ToAPI()}
}

// JSON writes the batch as an indented types.SQLBatch.
func JSON(w io.Writer, batch executor.Batch) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(wireBatch(batch))
	if err != nil {
		return fmt.Errorf("Failed to encode batch as JSON: %w", err)
	}

	return nil
}

// YAML writes the batch as a types.SQLBatch document.
func YAML(w io.Writer, batch executor.Batch) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	err := encoder.Encode(wireBatch(batch))
	if err != nil {
		return fmt.Errorf("Failed to encode batch as YAML: %w", err)
	}

	return encoder.Close()
}
