package types

// BatchStatus is the lifecycle state of a batch submitted to the daemon.
type BatchStatus string

const (
	// BatchRunning means the statements are still executing.
	BatchRunning BatchStatus = "running"

	// BatchFinished means every statement has a result.
	BatchFinished BatchStatus = "finished"
)

// SQLQuery represents a SQL script to run as a batch.
type SQLQuery struct {
	// Query is the raw script, split on Delimiter.
	Query string `json:"query" yaml:"query"`

	// Delimiter defaults to "go".
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`

	// MenuMode echoes each query above its table.
	MenuMode bool `json:"menu_mode,omitempty" yaml:"menu_mode,omitempty"`

	// Server selects a connection profile other than the active one.
	Server string `json:"server,omitempty" yaml:"server,omitempty"`
}

// SQLBatch represents a batch of SQL results.
type SQLBatch struct {
	ID      string      `json:"id,omitempty" yaml:"id,omitempty"`
	Status  BatchStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Results []SQLResult `json:"results" yaml:"results"`
}

// SQLResult represents the result of executing a single statement.
type SQLResult struct {
	Query        string   `json:"query" yaml:"query"`
	Error        string   `json:"error,omitempty" yaml:"error,omitempty"`
	Columns      []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows         [][]any  `json:"rows,omitempty" yaml:"rows,omitempty"`
	RowsAffected int64    `json:"rows_affected" yaml:"rows_affected"`
	MenuMode     bool     `json:"menu_mode,omitempty" yaml:"menu_mode,omitempty"`
}
