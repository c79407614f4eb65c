package filterdef

import (
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
)

// ParseError wraps a TOML decode failure with the offending file's
// path, so discovery can surface a useful diagnostic (spec.md §7:
// "Configuration errors ... produced at discovery; the offending
// filter is omitted from the index and a diagnostic surfaces").
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("filterdef: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes raw TOML bytes into a Definition. name is the
// discovery name (path relative to filters/, without extension) and
// is stamped onto the result but plays no role in parsing itself.
func Parse(path string, name string, raw []byte) (*Definition, error) {
	var def Definition
	if err := toml.Unmarshal(raw, &def); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	def.Name = name
	return &def, nil
}
