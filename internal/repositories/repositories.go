package repositories

import (
	"database/sql"
	"fmt"
)

// sequenced maps a table to the counter statement for its sequence table.
var sequenced = map[string]string{
	"sessions": `UPDATE sessions_sequence SET value = value + 1 WHERE id = 1 RETURNING value`,
}

// NextSequence bumps the counter kept for table and returns the new value.
//
// Only tables created with a sequence table by the migrations are accepted. The number orders
// sessions in listings and log lines; cookies and URLs carry the UUID instead.
func NextSequence(db *sql.DB, table string) (int, error) {
	stmt, ok := sequenced[table]
	if !ok {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	var sequence int
	if err := db.QueryRow(stmt).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}
