package domain

import (
	"sort"
	"strings"
)

// FieldErrors maps form field names to user-facing validation messages.
// It implements error so handlers can pass it through the usual error
// plumbing, but it is always recovered locally by redisplaying the form.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}

	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e[f])
	}
	return b.String()
}
