package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExpandEnvStrict substitutes environment variables into s.
//
// ${VAR} expands to the value of VAR and is an error when VAR is not
// set, so a config referencing an absent credential fails loudly
// instead of producing an empty connection string. Bare $VAR expands
// best-effort to "" when unset. $$ emits a literal dollar, and a $
// that introduces neither form is kept as is.
//
// When references are missing the error names every one of them, so a
// misconfigured deployment surfaces all gaps in a single run.
func ExpandEnvStrict(s string) (string, error) {
	var (
		out     strings.Builder
		missing []string
	)
	out.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '$' || i+1 == len(s) {
			out.WriteByte(s[i])
			i++
			continue
		}

		switch next := s[i+1]; {
		case next == '$':
			out.WriteByte('$')
			i += 2
		case next == '{':
			name, rest := bracedName(s[i+2:])
			if name == "" {
				out.WriteByte('$')
				i++
				continue
			}
			value, ok := os.LookupEnv(name)
			if !ok {
				missing = append(missing, name)
			}
			out.WriteString(value)
			i = len(s) - rest
		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			out.WriteString(os.Getenv(s[i+1 : j]))
			i = j
		default:
			out.WriteByte('$')
			i++
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		missing = slices.Compact(missing)
		return "", fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return out.String(), nil
}

// bracedName parses VAR} from the front of s. It returns the name and
// the length of s remaining after the closing brace, or "" when the
// reference is malformed (no closing brace, or characters outside
// [A-Za-z0-9_]). Malformed references are left in the output untouched.
func bracedName(s string) (name string, rest int) {
	end := strings.IndexByte(s, '}')
	if end <= 0 {
		return "", 0
	}
	candidate := s[:end]
	if !isNameStart(candidate[0]) {
		return "", 0
	}
	for i := 1; i < len(candidate); i++ {
		if !isNameByte(candidate[i]) {
			return "", 0
		}
	}
	return candidate, len(s) - end - 1
}

func isNameStart(c byte) bool {
	return c == '_' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isNameByte(c byte) bool {
	return isNameStart(c) || '0' <= c && c <= '9'
}
