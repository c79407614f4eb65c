package filterdef

import "fmt"

// UnmarshalTOML implements toml.Unmarshaler so `command` accepts
// either a single string or an array of strings (spec.md §6:
// "command may be a single string or an array of strings").
func (c *commandPatterns) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*c = commandPatterns{v}
	case []any:
		out := make(commandPatterns, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("filterdef: command entries must be strings, got %T", item)
			}
			out = append(out, s)
		}
		*c = out
	default:
		return fmt.Errorf("filterdef: command must be a string or array of strings, got %T", value)
	}
	return nil
}
