package store

import (
	"fmt"
	"strings"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// Backend names accepted by New.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// New constructs a ResultStore for the configured backend. For sqlite
// the path is the database file; for json it is the history directory.
func New(backend, path string) (core.ResultStore, error) {
	switch strings.ToLower(backend) {
	case BackendSQLite, "":
		return NewSQLiteStore(path)
	case BackendJSON:
		return NewJSONStore(path)
	default:
		return nil, core.ErrValidation(core.CodeInvalidMode,
			fmt.Sprintf("unknown store backend %q (want %s or %s)", backend, BackendSQLite, BackendJSON))
	}
}
