package database

import (
	"regexp"
	"strings"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidTableName reports whether name can be spliced into SQL as an identifier.
func ValidTableName(name string) bool {
	return tableNameRe.MatchString(name)
}

func selectEligibleSQL(table, now string) string {
	return `SELECT id, Name, Date_stamp, ServersList FROM ` + table +
		` WHERE EndOfAction_ExportType = 1 AND EndOfAction_DateTime < ` + now
}

// markExportedSQL renders the bulk update with n positional "?" placeholders.
func markExportedSQL(table string, n int) string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
	return `UPDATE ` + table +
		` SET EndOfAction_ExportType = -1 WHERE EndOfAction_ExportType = 1 AND id IN (` + marks + `)`
}

// markExportedPgSQL is the pgx flavour: the whole id list binds to $1 as an int8 array.
func markExportedPgSQL(table string) string {
	return `UPDATE ` + table +
		` SET EndOfAction_ExportType = -1 WHERE EndOfAction_ExportType = 1 AND id = ANY($1)`
}
