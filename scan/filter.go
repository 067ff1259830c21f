package scan

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// Filter selects paths by glob patterns. Patterns use '/' as separator:
// '*' stays within one path segment and '**' crosses segments. A pattern
// without a '/' is matched against the base name only.
type Filter struct {
	include []pattern
	exclude []pattern
}

type pattern struct {
	g        glob.Glob
	baseOnly bool
	deep     bool
}

// NewFilter compiles include and exclude patterns. With no include
// patterns every path not excluded matches.
func NewFilter(include, exclude []string) (*Filter, error) {
	inc, err := compileAll(include)
	if err != nil {
		return nil, err
	}
	exc, err := compileAll(exclude)
	if err != nil {
		return nil, err
	}
	return &Filter{include: inc, exclude: exc}, nil
}

func compileAll(patterns []string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, pattern{
			g:        g,
			baseOnly: !strings.Contains(p, "/"),
			deep:     strings.Contains(p, "**"),
		})
	}
	return out, nil
}

// Match reports whether the slash-separated relative path p is selected.
func (f *Filter) Match(p string) bool {
	if f == nil {
		return true
	}
	for _, e := range f.exclude {
		if e.match(p) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, i := range f.include {
		if i.match(p) {
			return true
		}
	}
	return false
}

// Recursive reports whether an include pattern uses '**'.
func (f *Filter) Recursive() bool {
	if f == nil {
		return false
	}
	for _, i := range f.include {
		if i.deep {
			return true
		}
	}
	return false
}

func (p pattern) match(name string) bool {
	if p.baseOnly {
		return p.g.Match(path.Base(name))
	}
	return p.g.Match(name)
}
