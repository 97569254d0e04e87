package menu

import (
	"strings"
)

// MatchKind classifies a resolution outcome.
type MatchKind int

const (
	// MatchNone means no item scored at or above the threshold.
	MatchNone MatchKind = iota
	// MatchUnique means one item won with a clear margin.
	MatchUnique
	// MatchAmbiguous means several items scored too close to call.
	MatchAmbiguous
)

// String returns the snake_case name of the kind.
func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchUnique:
		return "unique"
	case MatchAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Candidate is an item with its resolution score.
type Candidate struct {
	Item  *Item
	Score float64
}

// Resolution is the outcome of resolving a raw mention. For MatchUnique the
// first candidate is the resolved item; for MatchAmbiguous the candidates
// are in rank order.
type Resolution struct {
	Kind       MatchKind
	Candidates []Candidate
}

// Item returns the top candidate's item, or nil when Kind is MatchNone.
func (r Resolution) Item() *Item {
	if len(r.Candidates) == 0 {
		return nil
	}
	return r.Candidates[0].Item
}

// Resolve scores the raw mention against every item name and classifies
// the outcome. Scoring signals, strongest first: exact normalized equality,
// substring containment either way, token overlap, and a bounded edit
// distance fallback for single-token mentions. Ties keep menu declaration
// order, so resolution is deterministic for a fixed catalog.
func (c *Catalog) Resolve(raw string) Resolution {
	query := normalize(raw)
	if query == "" {
		return Resolution{Kind: MatchNone}
	}
	queryTokens := strings.Fields(query)

	var candidates []Candidate
	for _, item := range c.items {
		score := scoreName(query, queryTokens, normalize(item.Name))
		if score >= c.threshold {
			candidates = append(candidates, Candidate{Item: item, Score: score})
		}
	}
	if len(candidates) == 0 {
		return Resolution{Kind: MatchNone}
	}

	// Stable sort by score descending; equal scores keep declaration order.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Score > candidates[j-1].Score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	if len(candidates) == 1 || candidates[0].Score-candidates[1].Score >= c.margin {
		return Resolution{Kind: MatchUnique, Candidates: candidates[:1]}
	}
	return Resolution{Kind: MatchAmbiguous, Candidates: candidates}
}

// scoreName rates how well the normalized query matches one normalized
// item name. Returns a score in [0,1].
func scoreName(query string, queryTokens []string, name string) float64 {
	if query == name {
		return 1.0
	}

	best := 0.0
	if containsWords(name, query) || containsWords(query, name) {
		best = 0.9
	}

	nameTokens := strings.Fields(name)
	if overlap := tokenOverlap(queryTokens, nameTokens); overlap > best {
		best = overlap
	}

	// Single-token mentions tolerate small misspellings against each
	// name token: "burgr" still finds the burgers.
	if len(queryTokens) == 1 {
		tok := queryTokens[0]
		for _, nt := range nameTokens {
			d := editDistance(tok, nt)
			if d > 0 && d <= 2 && d < len(nt) {
				if s := 0.9 - 0.15*float64(d); s > best {
					best = s
				}
			}
		}
	}
	return best
}

// containsWords reports whether inner appears in outer on word boundaries.
func containsWords(outer, inner string) bool {
	if inner == "" {
		return false
	}
	idx := strings.Index(outer, inner)
	for idx >= 0 {
		startOK := idx == 0 || outer[idx-1] == ' '
		end := idx + len(inner)
		endOK := end == len(outer) || outer[end] == ' '
		if startOK && endOK {
			return true
		}
		next := strings.Index(outer[idx+1:], inner)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

// tokenOverlap is the shared-token ratio scaled into (0, 0.8].
func tokenOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	shared := 0
	for _, t := range b {
		if set[t] {
			shared++
			set[t] = false
		}
	}
	if shared == 0 {
		return 0
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return 0.8 * float64(shared) / float64(denom)
}

// editDistance is the Levenshtein distance between two short tokens.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// normalize lowercases, strips punctuation, and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), " ")
}
