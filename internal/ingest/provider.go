package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	RowsReceived int      `json:"rows_received"`
	RowsImported int      `json:"rows_imported"`
	RowsFailed   int      `json:"rows_failed"`
	Unmatched    []string `json:"unmatched,omitempty"`
	Errors       []string `json:"errors,omitempty"`

	Message string `json:"message,omitempty"`
}
