package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Context holds the flat variable set used to fill template placeholders.
// Values are scalars: strings, numbers or booleans.
type Context map[string]any

// Get retrieves a variable value by name.
func (c Context) Get(name string) (any, bool) {
	val, ok := c[name]
	return val, ok
}

// String returns the rendered form of a variable, or "" when absent.
func (c Context) String(name string) string {
	val, ok := c[name]
	if !ok {
		return ""
	}
	return ValueToString(val)
}

// Merge returns a new Context with the entries of other layered over c.
func (c Context) Merge(other Context) Context {
	result := make(Context, len(c)+len(other))
	for k, v := range c {
		result[k] = v
	}
	for k, v := range other {
		result[k] = v
	}
	return result
}

// Keys returns the variable names in sorted order.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseAssignments parses "key=value" pairs as given on the command line.
// Values are typed the same way template defaults are: "true"/"false" become
// bools, integers become ints, everything else stays a string.
func ParseAssignments(pairs []string) (Context, error) {
	ctx := make(Context, len(pairs))
	for _, pair := range pairs {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid assignment %q (expected key=value)", pair)
		}
		key := strings.TrimSpace(pair[:idx])
		if key == "" {
			return nil, fmt.Errorf("invalid assignment %q: empty key", pair)
		}
		ctx[key] = ParseValue(pair[idx+1:])
	}
	return ctx, nil
}

// ParseValue infers a scalar type from its textual form.
func ParseValue(value string) any {
	trimmed := strings.TrimSpace(value)

	if trimmed == "true" {
		return true
	}
	if trimmed == "false" {
		return false
	}

	if intVal, err := strconv.Atoi(trimmed); err == nil {
		return intVal
	}

	return value
}

// ValueToString converts a variable value to its string representation.
func ValueToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		// Whole numbers come back from YAML/JSON as floats
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return ValueToString(float64(v))
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
