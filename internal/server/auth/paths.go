package auth

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// compiled patterns, keyed by the normalized pattern text
var patternCache sync.Map

// RequireAuth reports whether path needs authentication given the excluded
// patterns. It returns false only when path is non-empty, excluded is
// non-empty and some pattern matches. Both sides lose exactly one trailing
// '/' before matching.
//
// Patterns use shell-glob syntax: '*' matches any run of characters
// (including '/'), '?' one character, "[...]" and "[!...]" a class.
// Matching is case-sensitive. There is no escape character: '\' and an
// unclosed '[' are literal, and so are braces. Inside a class a leading ']'
// is a member and a reversed range such as "z-a" is ignored.
func RequireAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}

	normalized := strings.TrimSuffix(path, "/")
	for _, pattern := range excluded {
		if matchPattern(strings.TrimSuffix(pattern, "/"), normalized) {
			return false
		}
	}
	return true
}

func matchPattern(pattern, path string) bool {
	if g, ok := patternCache.Load(pattern); ok {
		return g.(glob.Glob).Match(path)
	}

	g := compilePattern(pattern)
	patternCache.Store(pattern, g)
	return g.Match(path)
}

var (
	errEmptyClass   = errors.New("class matches nothing")
	errClassTooWide = errors.New("class too wide")
)

// maxClassRunes bounds how many runes a class may expand to.
const maxClassRunes = 256

type literal string

func (l literal) Match(s string) bool { return string(l) == s }

type nothing struct{}

func (nothing) Match(string) bool { return false }

func compilePattern(pattern string) glob.Glob {
	expr, err := translatePattern(pattern)
	switch {
	case errors.Is(err, errEmptyClass):
		return nothing{}
	case err != nil:
		return literal(pattern)
	}

	g, err := glob.Compile(expr)
	if err != nil {
		return literal(pattern)
	}
	return g
}

// translatePattern rewrites a shell glob into gobwas/glob syntax.
func translatePattern(pattern string) (string, error) {
	p := []rune(pattern)
	var b strings.Builder

	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '*', '?':
			b.WriteRune(c)
		case '[':
			end := classEnd(p, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class, err := translateClass(p[i+1 : end])
			if err != nil {
				return "", err
			}
			b.WriteString(class)
			i = end
		case '\\', '{', '}', ']':
			b.WriteRune('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String(), nil
}

// classEnd returns the index of the ']' closing the class opened at start,
// or -1 when there is none.
func classEnd(p []rune, start int) int {
	j := start + 1
	if j < len(p) && p[j] == '!' {
		j++
	}
	if j < len(p) && p[j] == ']' {
		j++
	}
	for ; j < len(p); j++ {
		if p[j] == ']' {
			return j
		}
	}
	return -1
}

type runeRange struct{ lo, hi rune }

func translateClass(body []rune) (string, error) {
	negated := len(body) > 0 && body[0] == '!'
	if negated {
		body = body[1:]
	}

	var ranges []runeRange
	for k := 0; k < len(body); {
		if k+2 < len(body) && body[k+1] == '-' {
			if body[k] <= body[k+2] {
				ranges = append(ranges, runeRange{body[k], body[k+2]})
			}
			k += 3
			continue
		}
		ranges = append(ranges, runeRange{body[k], body[k]})
		k++
	}

	switch {
	case len(ranges) == 0 && negated:
		return "?", nil
	case len(ranges) == 0:
		return "", errEmptyClass
	case len(ranges) == 1 && ranges[0].lo < ranges[0].hi && (negated || ranges[0].lo != '!'):
		return "[" + not(negated) + string(ranges[0].lo) + "-" + string(ranges[0].hi) + "]", nil
	}

	members, err := expand(ranges)
	if err != nil {
		return "", err
	}
	if len(members) == 1 && !negated {
		return `\` + string(members[0]), nil
	}
	if len(members) == 1 && members[0] == '-' {
		return "[!---]", nil
	}

	// '-' goes last so the lexer never sees "x-" as a range start.
	var b strings.Builder
	b.WriteString("[" + not(negated))
	dash := false
	for _, r := range members {
		switch r {
		case '-':
			dash = true
		case '\\', ']', '!':
			b.WriteRune('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	if dash {
		b.WriteString(`\-`)
	}
	b.WriteString("]")
	return b.String(), nil
}

func expand(ranges []runeRange) ([]rune, error) {
	seen := make(map[rune]struct{})
	for _, rr := range ranges {
		if int(rr.hi-rr.lo)+len(seen) >= maxClassRunes {
			return nil, errClassTooWide
		}
		for r := rr.lo; r <= rr.hi; r++ {
			seen[r] = struct{}{}
		}
	}

	members := make([]rune, 0, len(seen))
	for r := range seen {
		members = append(members, r)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members, nil
}

func not(negated bool) string {
	if negated {
		return "!"
	}
	return ""
}
