package redact

import (
	"strings"

	"github.com/GriffinCanCode/gadgeto/internal/shared/value"
)

// SensitiveField is the mapping key whose value is replaced
const SensitiveField = "content"

// History returns a copy of v with every "content" field replaced by a
// presence flag. Applies at every depth.
func History(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindSequence:
		items := v.Items()
		for i, item := range items {
			items[i] = History(item)
		}
		return value.Sequence(items...)
	case value.KindMapping:
		fields := v.Fields()
		for i, f := range fields {
			if f.Key == SensitiveField {
				fields[i].Value = value.Bool(present(f.Value))
				continue
			}
			fields[i].Value = History(f.Value)
		}
		return value.Mapping(fields...)
	default:
		return v
	}
}

// present reports whether v is a string with non-blank text. Any other kind,
// including null, counts as absent.
func present(v value.Value) bool {
	s, ok := v.AsString()
	return ok && strings.TrimSpace(s) != ""
}
