package intent

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser classifies normalized utterances against a compiled rule table.
type Parser struct {
	rules []compiledRule
}

type compiledRule struct {
	kind    Kind
	phrases [][]string
}

// NewParser compiles a rule table. A nil table means [DefaultRules].
func NewParser(rules []Rule) (*Parser, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	p := &Parser{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		if r.Intent == KindUnknown {
			return nil, fmt.Errorf("intent: rule %d: unknown is the fallback, not a rule intent", i)
		}
		if len(r.Phrases) == 0 {
			return nil, fmt.Errorf("intent: rule %d (%s): no phrases", i, r.Intent)
		}
		cr := compiledRule{kind: r.Intent, phrases: make([][]string, 0, len(r.Phrases))}
		for _, ph := range r.Phrases {
			words := compilePhrase(ph)
			if len(words) == 0 {
				return nil, fmt.Errorf("intent: rule %d (%s): empty phrase %q", i, r.Intent, ph)
			}
			cr.phrases = append(cr.phrases, words)
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// Parse classifies text and, for order, cancel, and info utterances,
// extracts the item mentions. Text matching no rule is KindUnknown.
func (p *Parser) Parse(text string) Intent {
	words := strings.Fields(normalize(text))
	if len(words) == 0 {
		return Intent{Kind: KindUnknown}
	}
	for _, r := range p.rules {
		if !r.matches(words) {
			continue
		}
		in := Intent{Kind: r.kind}
		switch r.kind {
		case KindOrder, KindCancel, KindInfo:
			in.Mentions = extractMentions(text)
		}
		return in
	}
	return Intent{Kind: KindUnknown}
}

func (r compiledRule) matches(words []string) bool {
	for _, ph := range r.phrases {
		if containsSeq(words, ph) {
			return true
		}
	}
	return false
}

// containsSeq reports whether pat occurs contiguously in words.
// A "+" pattern token matches any single word.
func containsSeq(words, pat []string) bool {
	if len(pat) == 0 || len(pat) > len(words) {
		return false
	}
	for i := 0; i+len(pat) <= len(words); i++ {
		ok := true
		for j, t := range pat {
			if t != "+" && words[i+j] != t {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// compilePhrase normalizes a phrase into word tokens, keeping the "+"
// wildcard intact.
func compilePhrase(ph string) []string {
	var words []string
	for _, tok := range strings.Fields(ph) {
		if tok == "+" {
			words = append(words, tok)
			continue
		}
		words = append(words, strings.Fields(normalize(tok))...)
	}
	return words
}

// normalize lower-cases, drops apostrophes so contractions keep one
// token, maps other punctuation to spaces, and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			space = false
		case r == '\'' || r == '’':
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// extractMentions splits an utterance into noun-phrase segments and
// reads an optional leading quantity from each. Segments that are all
// filler, or a bare numeral with no phrase to attach to, yield nothing.
func extractMentions(text string) []Mention {
	var mentions []Mention
	for _, seg := range splitSegments(text) {
		words := strings.Fields(normalize(seg))
		words = stripLeadIns(words)
		words = trimTrailers(words)
		qty, rest := readQuantity(words)
		if len(rest) == 0 {
			continue
		}
		mentions = append(mentions, Mention{
			RawText:  strings.Join(rest, " "),
			Quantity: qty,
		})
	}
	return mentions
}

func splitSegments(text string) []string {
	t := strings.ToLower(text)
	t = strings.ReplaceAll(t, ",", " and ")
	return strings.Split(t, " and ")
}

// leadIns are request fillers stripped from the front of a segment,
// longest first, repeatedly.
var leadIns = [][]string{
	{"i", "would", "like"}, {"i", "will", "have"}, {"i", "will", "take"},
	{"can", "i", "have"}, {"can", "i", "get"},
	{"could", "i", "have"}, {"could", "i", "get"},
	{"may", "i", "have"}, {"let", "me", "have"},
	{"how", "much", "is"}, {"how", "much", "are"},
	{"what", "is", "in"}, {"tell", "me", "about"},
	{"id", "like"}, {"ill", "have"}, {"ill", "take"},
	{"i", "want"}, {"i", "need"}, {"we", "want"}, {"we", "need"},
	{"well", "have"}, {"give", "me"}, {"get", "me"}, {"bring", "me"},
	{"how", "about"}, {"how", "much"}, {"whats", "in"}, {"what", "is"},
	{"can", "i"}, {"could", "i"}, {"may", "i"},
	{"take", "off"}, {"take", "out"},
	{"order"}, {"remove"}, {"delete"}, {"cancel"}, {"describe"}, {"whats"},
	{"also"}, {"and"}, {"then"}, {"just"}, {"maybe"}, {"no"},
	{"um"}, {"uh"}, {"please"}, {"yes"}, {"okay"}, {"ok"},
}

func stripLeadIns(words []string) []string {
	for {
		stripped := false
		for _, li := range leadIns {
			if hasPrefixSeq(words, li) {
				words = words[len(li):]
				stripped = true
				break
			}
		}
		if !stripped {
			return words
		}
	}
}

var trailers = [][]string{
	{"thank", "you"}, {"as", "well"}, {"please"}, {"thanks"}, {"too"},
}

func trimTrailers(words []string) []string {
	for {
		trimmed := false
		for _, tr := range trailers {
			if hasSuffixSeq(words, tr) {
				words = words[:len(words)-len(tr)]
				trimmed = true
				break
			}
		}
		if !trimmed {
			return words
		}
	}
}

func hasPrefixSeq(words, pat []string) bool {
	if len(pat) > len(words) {
		return false
	}
	for i, t := range pat {
		if words[i] != t {
			return false
		}
	}
	return true
}

func hasSuffixSeq(words, pat []string) bool {
	if len(pat) > len(words) {
		return false
	}
	off := len(words) - len(pat)
	for i, t := range pat {
		if words[off+i] != t {
			return false
		}
	}
	return true
}

// quantityWords maps spoken counts to integers. Articles count as one.
var quantityWords = map[string]int{
	"a": 1, "an": 1, "the": 1, "one": 1, "some": 1,
	"two": 2, "couple": 2, "pair": 2,
	"three": 3, "few": 3,
	"four": 4, "several": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "dozen": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// readQuantity consumes a quantity token from the front of a segment.
// No token, or a count below one, means quantity 1 with nothing
// consumed. "a couple of X" and "a dozen X" read through the article.
func readQuantity(words []string) (int, []string) {
	if len(words) == 0 {
		return 1, words
	}
	n, ok := quantityWords[words[0]]
	if !ok {
		if d, err := strconv.Atoi(words[0]); err == nil && d >= 1 {
			return d, words[1:]
		}
		return 1, words
	}
	rest := words[1:]
	if n == 1 && len(rest) > 0 {
		if m, ok := quantityWords[rest[0]]; ok && m > 1 {
			n, rest = m, rest[1:]
		}
	}
	if len(rest) > 0 && rest[0] == "of" {
		rest = rest[1:]
	}
	return n, rest
}
