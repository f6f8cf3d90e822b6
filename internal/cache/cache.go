// Package cache holds short-lived lookups of read-mostly catalog data.
package cache

import (
	"strconv"
	"strings"
)

// Key builds a namespaced cache key, e.g. Key("event_type", 3) = "infodemic:v1:event_type:3"
func Key(kind string, id int64) string {
	var b strings.Builder
	b.WriteString("infodemic:v1:")
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(id, 10))
	return b.String()
}
