package handlers

import (
	"database/sql"

	"github.com/lib/pq"
)

func errNoRows() error {
	return sql.ErrNoRows
}

func duplicateKeyErr() error {
	return &pq.Error{Code: "23505"}
}
