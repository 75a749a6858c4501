package config

const (
	// DefaultServiceURL is where a locally running query service listens.
	DefaultServiceURL = "http://localhost:8080"

	// DefaultHistoryFile is the activity database, created under the
	// user's config directory unless overridden.
	DefaultHistoryFile = "history.db"

	// DefaultUIPort is the web console listen port.
	DefaultUIPort = 7373

	// DefaultOutput is the CLI output format (table, json, csv, md).
	DefaultOutput = "table"
)
