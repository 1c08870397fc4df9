package mention

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxNameWords is the longest name, in words, a mention is narrowed to when it
// matches a candidate exactly.
const MaxNameWords = 3

// defaultNameWords is how many words a mention keeps when no candidate
// matches it exactly: a first and a last name.
const defaultNameWords = 2

var mentionRe = regexp.MustCompile(`@\p{L}+(?: \p{L}+)*`)

// Parse splits text into literal and mention segments. Mentions are left
// Pending and get resolved once activated.
func Parse(text string) []Segment {
	return parse(text, nil, func(Token) Token {
		return Token{State: Pending}
	})
}

// ParseWithCandidates splits text like Parse but resolves every mention
// against pool right away. With an empty pool the mentions are Inert.
func ParseWithCandidates(text string, pool []Candidate) []Segment {
	return parse(text, pool, func(t Token) Token {
		c, _, ok := Rank(t.Name(), pool, false)
		if !ok {
			return Token{State: Inert}
		}
		return Token{State: Resolved, UserID: c.ID, DisplayName: c.DisplayName()}
	})
}

func parse(text string, pool []Candidate, resolve func(Token) Token) []Segment {
	segments := []Segment{}
	last := 0
	for _, loc := range mentionRe.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); start > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			// Part of an email address or a handle like "a@b".
			continue
		}
		end = start + 1 + nameLength(text[start+1:end], pool)

		if start > last {
			segments = append(segments, literal(text, last, start))
		}
		tok := Token{Raw: text[start:end], Start: start, End: end}
		res := resolve(tok)
		tok.State, tok.UserID, tok.DisplayName = res.State, res.UserID, res.DisplayName
		segments = append(segments, Segment{Text: tok.Raw, Start: start, End: end, Mention: &tok})
		last = end
	}
	if last < len(text) {
		segments = append(segments, literal(text, last, len(text)))
	}
	return segments
}

// nameLength returns the byte length of the words of name that make up the
// mention: the longest prefix naming a candidate exactly, else the longest
// prefix any strategy matches, else the first defaultNameWords words.
func nameLength(name string, pool []Candidate) int {
	words := strings.Split(name, " ")
	n := longestPrefix(words, func(prefix string) bool {
		return exactly(prefix, pool)
	})
	if n == 0 {
		n = longestPrefix(words, func(prefix string) bool {
			_, _, ok := Rank(prefix, pool, true)
			return ok
		})
	}
	if n == 0 {
		n = min(len(words), defaultNameWords)
	}
	return len(strings.Join(words[:n], " "))
}

// longestPrefix returns how many of the first MaxNameWords words form the
// longest prefix accepted by match, or 0.
func longestPrefix(words []string, match func(prefix string) bool) int {
	for n := min(len(words), MaxNameWords); n > 0; n-- {
		if match(strings.Join(words[:n], " ")) {
			return n
		}
	}
	return 0
}

func literal(text string, start, end int) Segment {
	return Segment{Text: text[start:end], Start: start, End: end}
}
