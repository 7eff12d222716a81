package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extension marks scoring-expression files inside a model-artifact directory.
const Extension = ".painless"

// JoinOp combines the final factor lines of several scripts.
type JoinOp string

const (
	JoinOpAdd      JoinOp = "+"
	JoinOpMultiply JoinOp = "*"
)

// ParseJoinOp validates a join operator name.
func ParseJoinOp(raw string) (JoinOp, error) {
	switch op := JoinOp(strings.TrimSpace(raw)); op {
	case JoinOpAdd, JoinOpMultiply:
		return op, nil
	default:
		return "", fmt.Errorf("unknown join op %q (want %q or %q)", raw, JoinOpAdd, JoinOpMultiply)
	}
}

// Load reads a scoring expression verbatim. Newlines are kept because
// painless line comments need them.
func Load(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(b), nil
}

// LoadAll reads every path and combines the scripts with op.
func LoadAll(paths []string, op JoinOp) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("read script: no script files given")
	}

	scripts := make([]string, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return "", err
		}
		scripts = append(scripts, s)
	}
	return Combine(scripts, op), nil
}

// LoadDir combines every *.painless file of a model-artifact directory in
// file name order.
func LoadDir(dir string, op JoinOp) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read script dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return "", fmt.Errorf("read script dir: no %s files in %s", Extension, dir)
	}
	return LoadAll(paths, op)
}

// Combine merges scripts whose last line is the factor they contribute.
// Every other line is kept in order and the factors are joined with op on
// the final line. A single script is returned unchanged.
func Combine(scripts []string, op JoinOp) string {
	if len(scripts) == 1 {
		return scripts[0]
	}

	var body, factors []string
	for _, s := range scripts {
		lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
		body = append(body, lines[:len(lines)-1]...)
		factors = append(factors, lines[len(lines)-1])
	}

	return strings.Join(append(body, strings.Join(factors, string(op))), "\n")
}
