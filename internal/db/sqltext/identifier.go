package sqltext

import "regexp"

// Table, column and schema names cannot be parameterized like values, so
// anything reaching dynamic SQL construction has to pass this first.
// Allows alphanumerics, underscore and a dot for schema.table notation.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ValidIdentifier reports whether name is safe to embed in a built statement.
func ValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	return identifierPattern.MatchString(name)
}
