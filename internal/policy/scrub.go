package policy

import "strings"

// Columns that must never leave the service even if a statement slips past
// the validator or the database exposes more than the published schema.
var sensitiveColumns = map[string]struct{}{
	"salary":            {},
	"compensation":      {},
	"ssn":               {},
	"social_security":   {},
	"password":          {},
	"password_hash":     {},
	"bank_account":      {},
	"emergency_contact": {},
}

// ScrubRows removes sensitive columns from query results in place and
// reports how many values were dropped. Keys are matched case-insensitively
// so aggregate aliases like AVG(salary) AS "Salary" are still caught.
func ScrubRows(rows []map[string]any) int {
	dropped := 0
	for _, row := range rows {
		for key := range row {
			if _, bad := sensitiveColumns[strings.ToLower(strings.TrimSpace(key))]; bad {
				delete(row, key)
				dropped++
			}
		}
	}
	return dropped
}
