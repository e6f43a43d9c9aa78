package testutils

// TestingT is the part of testing.T the helpers report through
type TestingT interface {
	Errorf(format string, args ...any)
}

// FieldsToMap turns alternating key/value log fields into a map, reporting
// a dangling key or a non-string key as a test error.
func FieldsToMap(t TestingT, fields []any) map[string]any {
	out := make(map[string]any, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		key, ok := fields[i].(string)
		switch {
		case i+1 >= len(fields):
			t.Errorf("log field %v at index %d has no value", fields[i], i)
		case !ok:
			t.Errorf("log field key at index %d is %T, want string", i, fields[i])
		default:
			out[key] = fields[i+1]
		}
	}
	return out
}

// Field returns the value logged under key
func (e LogEntry) Field(key string) (any, bool) {
	for i := 0; i+1 < len(e.Fields); i += 2 {
		if k, ok := e.Fields[i].(string); ok && k == key {
			return e.Fields[i+1], true
		}
	}
	return nil, false
}
