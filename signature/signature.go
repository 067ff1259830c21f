package signature

import (
	"fmt"
	"strings"

	"github.com/gobeaver/filetype/content"
)

// Source is the byte view signatures are matched against.
// *content.Stream implements it.
type Source interface {
	CheckBytes(offset int64, p content.Pattern) bool
	Find(offset int64, p content.Pattern, opts ...content.FindOption) bool
}

var _ Source = (*content.Stream)(nil)

// Matcher decides whether a Source carries a signature.
type Matcher interface {
	Match(src Source) bool
	String() string
}

type at struct {
	offset  int64
	pattern content.Pattern
}

// At matches when p occurs exactly at offset. Negative offsets count from
// the end of the source.
func At(offset int64, p content.Pattern) Matcher {
	return at{offset: offset, pattern: p}
}

func (m at) Match(src Source) bool {
	return src.CheckBytes(m.offset, m.pattern)
}

func (m at) String() string {
	return fmt.Sprintf("at(%d, %s)", m.offset, m.pattern)
}

type near struct {
	offset  int64
	pattern content.Pattern
	opts    []content.FindOption
}

// Near matches when p occurs within the search window Find uses around
// offset. The offset itself is not part of the window.
func Near(offset int64, p content.Pattern, opts ...content.FindOption) Matcher {
	return near{offset: offset, pattern: p, opts: opts}
}

func (m near) Match(src Source) bool {
	return src.Find(m.offset, m.pattern, m.opts...)
}

func (m near) String() string {
	return fmt.Sprintf("near(%d, %s)", m.offset, m.pattern)
}

type all []Matcher

// All matches when every matcher matches. Evaluation stops at the first
// failure.
func All(ms ...Matcher) Matcher {
	return all(ms)
}

func (ms all) Match(src Source) bool {
	for _, m := range ms {
		if !m.Match(src) {
			return false
		}
	}
	return true
}

func (ms all) String() string {
	return join("all", ms)
}

type anyOf []Matcher

// Any matches when at least one matcher matches. Evaluation stops at the
// first success.
func Any(ms ...Matcher) Matcher {
	return anyOf(ms)
}

func (ms anyOf) Match(src Source) bool {
	for _, m := range ms {
		if m.Match(src) {
			return true
		}
	}
	return false
}

func (ms anyOf) String() string {
	return join("any", ms)
}

type not struct {
	m Matcher
}

// Not inverts a matcher.
func Not(m Matcher) Matcher {
	return not{m: m}
}

func (n not) Match(src Source) bool {
	return !n.m.Match(src)
}

func (n not) String() string {
	return "not(" + n.m.String() + ")"
}

func join(name string, ms []Matcher) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
