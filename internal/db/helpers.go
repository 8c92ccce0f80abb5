package db

import (
	"strconv"
	"strings"
)

// ph — очередной позиционный плейсхолдер ($1, $2, ...) для динамических запросов.
func ph(idx *int) string {
	s := "$" + strconv.Itoa(*idx)
	*idx++
	return s
}

// prefixCols("s.", "id, name") -> "s.id, s.name"
func prefixCols(prefix, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
