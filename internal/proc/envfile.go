package proc

import (
	"fmt"
	"os"
	"strings"
)

// LoadEnvFile reads KEY=VALUE lines. Blank lines, comments and a leading
// "export " are tolerated; matching surrounding quotes are stripped.
func LoadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file: %w", err)
	}
	env := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		s := strings.TrimSpace(line)
		if s == "" || s[0] == '#' {
			continue
		}
		s = strings.TrimPrefix(s, "export ")
		eqIdx := strings.IndexByte(s, '=')
		if eqIdx <= 0 {
			continue
		}
		env[strings.TrimSpace(s[:eqIdx])] = stripQuotes(s[eqIdx+1:])
	}
	return env, nil
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
