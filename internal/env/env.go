package env

import (
	"os"
	"path/filepath"
	"strings"
)

type Var map[string]string

// ParseFile parses a dotenv-style file with KEY=VALUE lines (no export, no
// multiline values). Blank lines and lines starting with # are ignored.
// Surrounding single or double quotes on the value are stripped.
func ParseFile(path string) (Var, error) {
	clean := filepath.Clean(path)
	b, err := os.ReadFile(clean)
	if err != nil {
		return nil, err
	}
	m := make(Var)
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 0 {
			continue
		}
		k := strings.TrimSpace(line[:i])
		v := strings.TrimSpace(line[i+1:])
		if k == "" {
			continue
		}
		if n := len(v); n >= 2 {
			if (v[0] == '\'' && v[n-1] == '\'') || (v[0] == '"' && v[n-1] == '"') {
				v = v[1 : n-1]
			}
		}
		m[k] = v
	}
	return m, nil
}

// Merge composes the child environment: the OS environment as base, then the
// dotenv vars applied on top. ${VAR} references in values are expanded against
// the composed map (single pass, no recursion). The result is in "K=V" form
// suitable for exec.Cmd.Env.
func Merge(dotenv Var) []string {
	m := make(Var)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			if k == "" {
				continue
			}
			m[k] = kv[i+1:]
		}
	}
	for k, v := range dotenv {
		if k == "" {
			continue
		}
		m[k] = v
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+expand(v, m))
	}
	return out
}

func expand(s string, m Var) string {
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
