package permission

import "strings"

// MatchAction reports whether an action identifier matches pattern.
// Supported patterns: "*" (everything), an exact identifier, or a prefix
// ending in "*" such as "plugin::content-manager.explorer.*".
func MatchAction(pattern, action string) bool {
	if pattern == "" || pattern == "*" || pattern == action {
		return true
	}
	if prefix, ok := ActionPrefix(pattern); ok {
		return strings.HasPrefix(action, prefix)
	}
	return false
}

// ActionPrefix returns the literal prefix of a trailing-"*" pattern.
// Backends use it to translate a pattern into a prefix query.
func ActionPrefix(pattern string) (string, bool) {
	if !strings.HasSuffix(pattern, "*") {
		return "", false
	}
	return strings.TrimSuffix(pattern, "*"), true
}
