package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ParamType is the declared type of one tool argument.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param declares one named tool argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool

	// Enum restricts a string parameter to a closed value set.
	Enum []string

	// Min/Max bound an integer parameter inclusively.
	Min *int
	Max *int
}

// Schema is the declared argument contract of one tool. Validation is
// strict: unknown arguments are rejected, never silently dropped, so a
// caller that misremembers a parameter name finds out immediately.
type Schema struct {
	Params []Param
}

// Validate checks args against the schema and returns a normalized copy:
// strings as string, integers as int. Any violation produces an error
// describing every offending argument.
func (s Schema) Validate(args map[string]any) (map[string]any, error) {
	declared := make(map[string]Param, len(s.Params))
	for _, p := range s.Params {
		declared[p.Name] = p
	}

	var problems []string
	clean := make(map[string]any, len(args))

	for name := range args {
		if _, ok := declared[name]; !ok {
			problems = append(problems, fmt.Sprintf("unknown argument %q", name))
		}
	}

	for _, p := range s.Params {
		raw, ok := args[p.Name]
		if !ok || raw == nil {
			if p.Required {
				problems = append(problems, fmt.Sprintf("missing required argument %q", p.Name))
			}
			continue
		}

		switch p.Type {
		case TypeString:
			v, ok := raw.(string)
			if !ok {
				problems = append(problems, fmt.Sprintf("argument %q must be a string, got %T", p.Name, raw))
				continue
			}
			if len(p.Enum) > 0 && !contains(p.Enum, v) {
				problems = append(problems, fmt.Sprintf("argument %q must be one of [%s], got %q",
					p.Name, strings.Join(p.Enum, ", "), v))
				continue
			}
			clean[p.Name] = v

		case TypeInteger:
			v, err := toInt(raw)
			if err != nil {
				problems = append(problems, fmt.Sprintf("argument %q: %v", p.Name, err))
				continue
			}
			if p.Min != nil && v < *p.Min {
				problems = append(problems, fmt.Sprintf("argument %q must be >= %d, got %d", p.Name, *p.Min, v))
				continue
			}
			if p.Max != nil && v > *p.Max {
				problems = append(problems, fmt.Sprintf("argument %q must be <= %d, got %d", p.Name, *p.Max, v))
				continue
			}
			clean[p.Name] = v
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return clean, nil
}

// toInt accepts the integer encodings a JSON-speaking caller can produce.
func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("must be an integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be an integer, got %q", v.String())
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("must be an integer, got %T", raw)
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func intPtr(n int) *int { return &n }
