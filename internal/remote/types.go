// Package remote provides the HTTP client for the query service.
//
// The query service stores natural-language-to-SQL query records and owns
// all SQL generation and execution. The console only reads and mutates
// query records through this client.
package remote

import "time"

// Status is the review status of a query record.
type Status string

// Query statuses reported by the service.
const (
	StatusNotVerified Status = "NOT_VERIFIED"
	StatusVerified    Status = "VERIFIED"
	StatusRejected    Status = "REJECTED"
	StatusSQLError    Status = "SQL_ERROR"
)

// Result holds the rows produced by running a query's SQL.
// Only mutation responses carry a result; GET responses omit it.
type Result struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	DurationMS int64    `json:"duration_ms"`
}

// Query is a stored natural-language-to-SQL request/result record.
type Query struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	SQL            string    `json:"sql_query"`
	Status         Status    `json:"status"`
	Confidence     float64   `json:"confidence,omitempty"`
	TotalTokens    int       `json:"total_tokens,omitempty"`
	DisplayMessage string    `json:"display_message,omitempty"` // HTML fragment
	Result         *Result   `json:"sql_result,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PutRequest is a partial update of a query record. Its keys follow the
// service's edit schema (e.g. "sql_query", "status", "display_message");
// the client passes it through verbatim.
type PutRequest map[string]any

// executeRequest is the body of the execute endpoint.
type executeRequest struct {
	SQL string `json:"sql_query"`
}
