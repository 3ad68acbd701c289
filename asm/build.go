// Package asm implements an assembler which turns a source file and its
// includes into a program image, ready for use on a VM.
package asm

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Build builds a program from the given source file and its includes.
// Included files are searched for relative to the including file, then
// in the given search paths.
func Build(file string, includeSearchPaths []string) (*Program, error) {
	list, err := buildStatements(file, includeSearchPaths, nil)
	if err != nil {
		return nil, err
	}
	return newAssembler().assemble(list)
}

// Assemble builds a program from in-memory source. Includes are not supported.
func Assemble(name string, src []byte) (*Program, error) {
	list, err := parse(bytes.NewReader(src), name)
	if err != nil {
		return nil, err
	}

	for _, st := range list {
		if st.name == "include" {
			return nil, newError(st.pos, "include is not supported here")
		}
	}

	return newAssembler().assemble(list)
}

// buildStatements reads the given source file and its dependencies.
// It ensures the file and its dependencies do not contain any circular include references.
func buildStatements(file string, includeSearchPaths, dependencyChain []string) ([]*statement, error) {
	file = findSourceFile(file, includeSearchPaths)

	if containsString(dependencyChain, file) {
		return nil, fmt.Errorf("circular reference to file %q detected", file)
	}

	dependencyChain = append(dependencyChain, file)

	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	list, err := parse(bytes.NewReader(src), file)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(file)
	paths := append([]string{dir}, includeSearchPaths...)
	out := make([]*statement, 0, len(list))

	for _, st := range list {
		if st.name != "include" {
			out = append(out, st)
			continue
		}

		if len(st.operands) != 1 {
			return nil, newError(st.pos, "invalid include statement; expected `include \"<path>\"`")
		}

		path, err := strconv.Unquote(st.operands[0])
		if err != nil {
			return nil, newError(st.pos, "invalid include path; expected string")
		}

		// A label on the include line marks the start of the included code.
		if len(st.label) > 0 {
			out = append(out, &statement{pos: st.pos, label: st.label})
		}

		inc, err := buildStatements(path, paths, dependencyChain)
		if err != nil {
			if _, ok := err.(*Error); ok {
				return nil, err
			}
			return nil, newError(st.pos, "%v", err)
		}

		out = append(out, inc...)
	}

	return out, nil
}

// findSourceFile returns the fully qualified version of file.
// Returns file as-is if it exists on disk. If not, looks in directories
// specified by the given include search paths.
func findSourceFile(file string, includeSearchPaths []string) string {
	if filepath.IsAbs(file) {
		return file
	}

	for _, inc := range includeSearchPaths {
		path := filepath.Join(inc, file)
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			return path
		}
	}

	return file
}

// containsString returns true if set contains v.
func containsString(set []string, v string) bool {
	for _, sv := range set {
		if sv == v {
			return true
		}
	}
	return false
}
