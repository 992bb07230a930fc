package repository

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func newID() string {
	return uuid.NewString()
}

func pqStringArray(values []string) driver.Valuer {
	return pq.Array(values)
}
