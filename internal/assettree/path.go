package assettree

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Path identifies a tree position by the child indices taken from the root.
// The empty path is the root.
type Path []int

// String renders the path as dot-separated indices, or "." for the root.
func (p Path) String() string {
	if len(p) == 0 {
		return "."
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ".")
}

// Child returns a new path that descends into child i.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// Equal reports whether p and o name the same position.
func (p Path) Equal(o Path) bool {
	return slices.Equal(p, o)
}

// ParsePath parses the form produced by Path.String. "" and "." are the root.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, len(parts))
	for i, part := range parts {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("assettree: invalid path segment %q in %q", part, s)
		}
		p[i] = idx
	}
	return p, nil
}
