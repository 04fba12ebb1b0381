package executor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/canonical/sqlbatch/internal/rest/types"
)

// StatementError is the error recorded on the Result of a statement that failed.
type StatementError struct {
	Query string
	Err   error
}

func (e *StatementError) Error() string {
	return e.Err.Error()
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one statement.
//
// A Result carries either an error or the output of the statement, never both.
type Result struct {
	Query    string
	Err      error
	Columns  []string
	Rows     [][]any
	RowCount int64
	MenuMode bool
}

// HasError reports whether the statement failed.
func (r Result) HasError() bool {
	return r.Err != nil
}

// HasRows reports whether the statement returned at least one row.
func (r Result) HasRows() bool {
	return r.Err == nil && len(r.Rows) > 0
}

// Visible reports whether the result has anything to present.
func (r Result) Visible() bool {
	return r.HasError() || r.HasRows()
}

// ToAPI converts the result to its wire form.
func (r Result) ToAPI() types.SQLResult {
	result := types.SQLResult{
		Query:        r.Query,
		Columns:      r.Columns,
		Rows:         r.Rows,
		RowsAffected: r.RowCount,
		MenuMode:     r.MenuMode,
	}

	if r.Err != nil {
		result.Error = r.Err.Error()
	}

	return result
}

// ResultFromAPI converts a wire result back into a Result.
func ResultFromAPI(result types.SQLResult) Result {
	r := Result{
		Query:    result.Query,
		RowCount: result.RowsAffected,
		MenuMode: result.MenuMode,
	}

	if result.Error != "" {
		r.Err = &StatementError{Query: result.Query, Err: errors.New(result.Error)}
		return r
	}

	r.Columns = result.Columns
	r.Rows = result.Rows
	for _, row := range r.Rows {
		for i, value := range row {
			row[i] = numberValue(value)
		}
	}

	return r
}

// numberValue turns a decoded json.Number back into the int64 or float64 a driver returns.
func numberValue(value any) any {
	number, ok := value.(json.Number)
	if !ok {
		return value
	}

	i, err := number.Int64()
	if err == nil {
		return i
	}

	f, err := number.Float64()
	if err == nil {
		return f
	}

	return number.String()
}

// Batch is the ordered list of results, one per statement.
type Batch []Result

// Visible reports whether any result of the batch has something to present.
func (b Batch) Visible() bool {
	for _, r := range b {
		if r.Visible() {
			return true
		}
	}

	return false
}

// Errors returns the number of failed statements.
func (b Batch) Errors() int {
	count := 0
	for _, r := range b {
		if r.HasError() {
			count++
		}
	}

	return count
}

// Err returns an error summarising the failed statements, or nil if all succeeded.
func (b Batch) Err() error {
	count := b.Errors()
	if count == 0 {
		return nil
	}

	return fmt.Errorf("%d of %d statements failed", count, len(b))
}

// ToAPI converts the batch to its wire form.
func (b Batch) ToAPI() []types.SQLResult {
	results := make([]types.SQLResult, 0, len(b))
	for _, r := range b {
		results = append(results, r.ToAPI())
	}

	return results
}

// BatchFromAPI converts wire results back into a Batch.
func BatchFromAPI(results []types.SQLResult) Batch {
	batch := make(Batch, 0, len(results))
	for _, r := range results {
		batch = append(batch, ResultFromAPI(r))
	}

	return batch
}
