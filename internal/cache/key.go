package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Params are the request parameters that distinguish one cached resource from another.
type Params map[string]any

const (
	keyPairSep     = "|"
	keyPrefixSep   = "_"
	keyPlaceholder = "default"
)

// BuildKey derives a cache key from a resource prefix and its parameters.
// Parameters are sorted by name so insertion order never matters.
func BuildKey(prefix string, params Params) string {
	if len(params) == 0 {
		return prefix + keyPrefixSep + keyPlaceholder
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+":"+renderParam(params[name]))
	}
	return prefix + keyPrefixSep + strings.Join(pairs, keyPairSep)
}

var valueEscaper = strings.NewReplacer("%", "%25", keyPairSep, "%7C")

func renderParam(v any) string {
	switch val := v.(type) {
	case nil:
		return keyPlaceholder
	case string:
		// keep the pair separator out of free-text values such as search terms
		return valueEscaper.Replace(val)
	case *string:
		if val == nil {
			return keyPlaceholder
		}
		return renderParam(*val)
	default:
		return fmt.Sprint(val)
	}
}
