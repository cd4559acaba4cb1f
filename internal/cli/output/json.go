package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter formats data as indented JSON, using the json tags the
// backend uses.
type JSONFormatter struct{}

// Format formats data as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
