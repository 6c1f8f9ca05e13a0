package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ILikeClause builds a case-insensitive substring predicate for column that
// behaves the same on postgres and sqlite.
func ILikeClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '\\'"
}

// ContainsPattern lowercases term and escapes LIKE wildcards for ILikeClause.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
