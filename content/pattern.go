package content

// Pattern is the byte sequence a probe compares against. Build one with
// Bytes or Text so callers never pass loosely typed values.
type Pattern []byte

// Bytes returns a Pattern of literal byte values.
func Bytes(b ...byte) Pattern {
	return Pattern(b)
}

// Text returns the byte encoding of s as a Pattern.
func Text(s string) Pattern {
	return Pattern(s)
}

// String renders the pattern in hex, for logs and error messages.
func (p Pattern) String() string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(p)*3)
	for i, b := range p {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, digits[b>>4], digits[b&0x0f])
	}
	return string(out)
}

// FindOption tunes a Find call.
type FindOption func(*findOptions)

type findOptions struct {
	maxDepth int
	reverse  bool
}

// MaxDepth bounds how far from the anchor Find looks, inclusive.
func MaxDepth(n int) FindOption {
	return func(o *findOptions) {
		o.maxDepth = n
	}
}

// Reverse makes Find walk toward the start of the source.
func Reverse() FindOption {
	return func(o *findOptions) {
		o.reverse = true
	}
}
