package services

import (
	"time"

	"tabclean/internal/loader"
	"tabclean/internal/pipeline"
	"tabclean/internal/table"
)

// Session is a read-only handle on one loaded dataset. Queries receive it
// explicitly; it never changes after creation, so it can be shared between
// concurrent requests.
type Session struct {
	table    *table.Table
	source   string
	loadedAt time.Time
	load     *loader.Report
	summary  *pipeline.Summary
}

// NewSession wraps t. load and summary may be nil when the table did not
// come from a file or was not cleaned by a plan.
func NewSession(t *table.Table, source string, load *loader.Report, summary *pipeline.Summary) *Session {
	return &Session{
		table:    t,
		source:   source,
		loadedAt: time.Now().UTC(),
		load:     load,
		summary:  summary,
	}
}

// Table returns the dataset.
func (s *Session) Table() *table.Table { return s.table }

// Source returns the file the dataset was read from.
func (s *Session) Source() string { return s.source }

// LoadedAt returns when the session was created.
func (s *Session) LoadedAt() time.Time { return s.loadedAt }

// LoadReport returns the load report, if any.
func (s *Session) LoadReport() *loader.Report { return s.load }

// Summary returns the cleaning summary, if the dataset was cleaned.
func (s *Session) Summary() *pipeline.Summary { return s.summary }

func (s *Session) valid() bool {
	return s != nil && s.table != nil
}
