package validation

import (
	"fmt"
	"strconv"
)

func (r *Report) add(code, severity, message string) {
	r.Issues = append(r.Issues, Issue{Code: code, Severity: severity, Message: message})
}

func (r *Report) addf(code, severity, format string, args ...any) {
	r.add(code, severity, fmt.Sprintf(format, args...))
}

// intSetting reads a numeric setting decoded from JSON (float64), or given
// as an int or numeric string.
func intSetting(settings map[string]any, key string) (int, bool) {
	v, ok := settings[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}
