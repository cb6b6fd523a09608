package database

import "github.com/jmoiron/sqlx"

// In expands a query with a slice argument into a query usable with IN
// clauses. Callers must Rebind the returned query before executing it.
func In(query string, args ...interface{}) (string, []interface{}, error) {
	return sqlx.In(query, args...)
}
