package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// readTOML loads a settings file written as TOML. Keys use the same names
// as the dotenv form; arrays are joined with commas so LDAP_ATTRS may be
// written as a list.
func readTOML(path string) (map[string]string, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		s, err := tomlString(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		values[key] = s
	}
	return values, nil
}

func tomlString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strings.ToUpper(fmt.Sprint(v)), nil
	case int64, float64:
		return fmt.Sprint(v), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			s, err := tomlString(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}
