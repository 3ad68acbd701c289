package asm

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// resolver returns the value of a named symbol.
type resolver func(name string) (int64, bool)

// evaluate computes the value of a constant expression.
//
// An expression is a sequence of terms joined by '+' or '-'. A term is a
// number, a character literal, a symbol or "$$", which denotes the address
// of the current statement. Numbers are decimal, or hexadecimal with a
// "0x" or "$" prefix, or binary with a "0b" prefix.
func evaluate(expr string, here uint32, resolve resolver) (int64, error) {
	expr = strings.TrimSpace(expr)
	if len(expr) == 0 {
		return 0, errors.New("empty expression")
	}

	var sum int64
	sign := int64(1)

	for len(expr) > 0 {
		switch expr[0] {
		case '+':
			expr = strings.TrimSpace(expr[1:])
			continue
		case '-':
			sign = -sign
			expr = strings.TrimSpace(expr[1:])
			continue
		}

		n := termLen(expr)
		v, err := term(expr[:n], here, resolve)
		if err != nil {
			return 0, err
		}

		sum += sign * v
		sign = 1
		expr = strings.TrimSpace(expr[n:])

		if len(expr) > 0 && expr[0] != '+' && expr[0] != '-' {
			return 0, errors.Errorf("unexpected %q; want '+' or '-'", expr)
		}
	}

	return sum, nil
}

// termLen returns the length of the leading term in s.
func termLen(s string) int {
	if s[0] == '\'' {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '\'':
				return i + 1
			}
		}
		return len(s)
	}

	if i := strings.IndexAny(s, "+- \t"); i > 0 {
		return i
	}
	return len(s)
}

// term computes the value of a single expression term.
func term(s string, here uint32, resolve resolver) (int64, error) {
	switch {
	case s == "$$":
		return int64(here), nil

	case s[0] == '\'':
		v, err := strconv.Unquote(s)
		if err != nil || len(v) == 0 {
			return 0, errors.Errorf("invalid character literal %s", s)
		}
		return int64(v[0]), nil

	case s[0] == '$':
		return parseNumber(s[1:], 16)

	case s[0] >= '0' && s[0] <= '9':
		lower := strings.ToLower(s)
		switch {
		case strings.HasPrefix(lower, "0x"):
			return parseNumber(s[2:], 16)
		case strings.HasPrefix(lower, "0b"):
			return parseNumber(s[2:], 2)
		}
		return parseNumber(s, 10)
	}

	if v, ok := resolve(s); ok {
		return v, nil
	}

	return 0, errors.Errorf("reference to unresolved value %s", s)
}

func parseNumber(s string, base int) (int64, error) {
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), base, 32)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	return int64(v), nil
}

// fits returns true if v can be stored in n bytes, either signed or unsigned.
func fits(v int64, n int) bool {
	bits := uint(n * 8)
	return v >= -(1<<(bits-1)) && v < 1<<bits
}
