package renderer

import "strings"

var cEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// CString returns s as a double-quoted C string literal with '\' and '"' escaped.
// Control characters are rejected earlier by secrets.Parse and are not handled here.
func CString(s string) string {
	return `"` + cEscaper.Replace(s) + `"`
}
