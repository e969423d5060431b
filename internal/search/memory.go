package search

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/chchsunny/PcWeb/internal/catalog"
)

// Memory is an in-process index with the same query semantics as the
// Elasticsearch driver, approximated: terms match name or category tokens
// exactly, by substring, or within the AUTO edit distance.
type Memory struct {
	mu   sync.RWMutex
	docs map[int]catalog.Part
}

func NewMemory() *Memory {
	return &Memory{docs: map[int]catalog.Part{}}
}

func (m *Memory) EnsureIndex(context.Context) (bool, error) { return false, nil }

func (m *Memory) IndexMany(_ context.Context, parts []catalog.Part) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range parts {
		m.docs[p.ID] = p
	}
	return nil
}

func (m *Memory) Index(_ context.Context, p catalog.Part) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[p.ID] = p
	return nil
}

func (m *Memory) Update(_ context.Context, p catalog.Part) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[p.ID]; !ok {
		return ErrDocumentMissing
	}
	m.docs[p.ID] = p
	return nil
}

func (m *Memory) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrDocumentMissing
	}
	delete(m.docs, id)
	return nil
}

func (m *Memory) Search(_ context.Context, q string, size int) ([]catalog.Part, error) {
	terms := tokenize(q)

	type hit struct {
		p     catalog.Part
		score int
	}

	m.mu.RLock()
	hits := make([]hit, 0, len(m.docs))
	for _, p := range m.docs {
		fields := append(tokenize(p.Name), tokenize(p.Category)...)
		if s := score(terms, fields); s > 0 {
			hits = append(hits, hit{p: p, score: s})
		}
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].p.ID < hits[j].p.ID
	})

	if size > 0 && len(hits) > size {
		hits = hits[:size]
	}

	out := make([]catalog.Part, len(hits))
	for i, h := range hits {
		out[i] = h.p
	}
	return out, nil
}

func score(terms, fields []string) int {
	total := 0
	for _, t := range terms {
		best := 0
		for _, f := range fields {
			switch {
			case f == t:
				best = max(best, 3)
			case strings.Contains(f, t):
				best = max(best, 2)
			case editDistance(t, f) <= autoFuzziness(t):
				best = max(best, 1)
			}
		}
		total += best
	}
	return total
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// autoFuzziness mirrors Elasticsearch "AUTO": exact up to 2 runes, one edit
// up to 5, two beyond.
func autoFuzziness(term string) int {
	switch n := len([]rune(term)); {
	case n <= 2:
		return 0
	case n <= 5:
		return 1
	default:
		return 2
	}
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
