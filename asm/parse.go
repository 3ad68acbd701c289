package asm

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/hexaflex/cvm/arch"
)

// statement defines a single parsed source line.
type statement struct {
	pos      Position
	label    string    // Label defined by the line, if any.
	name     string    // Lower case mnemonic or directive. Empty for label-only lines.
	size     arch.Size // Operand size suffix.
	hasSize  bool      // Was a size suffix given?
	operands []string  // Raw operand text.
}

// parse reads source lines from r and returns the statements they define.
//
// A line holds an optional label of the form ":name", followed by an
// optional mnemonic or directive with comma separated operands. Comments
// start with ';' and run to the end of the line.
func parse(r io.Reader, file string) ([]*statement, error) {
	var out []*statement

	scan := bufio.NewScanner(r)
	pos := Position{File: file}

	for scan.Scan() {
		pos.Line++

		line := strings.TrimSpace(stripComment(scan.Text()))
		if len(line) == 0 {
			continue
		}

		st := &statement{pos: pos}

		if line[0] == ':' {
			name, rest := splitWord(line[1:])
			if !isSymbol(name) {
				return nil, newError(pos, "invalid label name %q", name)
			}
			st.label = name
			line = rest
		}

		if len(line) > 0 {
			if err := st.parseInstruction(line); err != nil {
				return nil, err
			}
		}

		out = append(out, st)
	}

	return out, scan.Err()
}

// parseInstruction reads the mnemonic, size suffix and operands.
func (st *statement) parseInstruction(line string) error {
	name, rest := splitWord(line)
	name = strings.ToLower(name)

	if i := strings.IndexByte(name, '.'); i > -1 {
		sz, ok := arch.ParseSize(name[i+1:])
		if !ok {
			return newError(st.pos, "unknown operand size %q", name[i+1:])
		}
		name = name[:i]
		st.size = sz
		st.hasSize = true
	}

	st.name = name

	ops, err := splitOperands(rest)
	if err != nil {
		return newError(st.pos, "%v", err)
	}

	st.operands = ops
	return nil
}

// stripComment removes a trailing comment. Semicolons inside string and
// character literals are kept.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == ';':
			return line[:i]
		}
	}
	return line
}

// splitWord returns the first whitespace delimited word in s and the trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i > -1 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// splitOperands splits s on commas outside of literals and parentheses.
func splitOperands(s string) ([]string, error) {
	if len(s) == 0 {
		return nil, nil
	}

	var out []string
	var quote byte
	depth, start := 0, 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0 && c == '\\':
			i++
		case quote != 0 && c == quote:
			quote = 0
		case quote != 0:
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}

	if quote != 0 {
		return nil, errors.Errorf("unterminated literal in %q", s)
	}

	if depth != 0 {
		return nil, errors.Errorf("unbalanced parentheses in %q", s)
	}

	out = append(out, strings.TrimSpace(s[start:]))

	for _, v := range out {
		if len(v) == 0 {
			return nil, errors.Errorf("empty operand in %q", s)
		}
	}

	return out, nil
}

// isSymbol returns true if name is a valid label or constant name.
func isSymbol(name string) bool {
	if len(name) == 0 || arch.IsRegister(name) {
		return false
	}

	for i, r := range name {
		switch {
		case r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
