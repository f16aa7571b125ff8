// Package cograph builds entity co-occurrence graphs from per-chunk entity
// lists and computes their summary statistics.
package cograph

// Frequencies counts entity occurrences and remembers first-appearance
// order.
type Frequencies struct {
	order  []string
	counts map[string]int
}

// NewFrequencies returns an empty table.
func NewFrequencies() *Frequencies {
	return &Frequencies{counts: make(map[string]int)}
}

// CountFrequencies tallies entities.
func CountFrequencies(entities []string) *Frequencies {
	f := NewFrequencies()
	for _, e := range entities {
		f.Add(e)
	}
	return f
}

// CountChunks tallies every entity of every chunk.
func CountChunks(chunks [][]string) *Frequencies {
	f := NewFrequencies()
	for _, c := range chunks {
		for _, e := range c {
			f.Add(e)
		}
	}
	return f
}

// Add records one occurrence of e.
func (f *Frequencies) Add(e string) {
	if _, ok := f.counts[e]; !ok {
		f.order = append(f.order, e)
	}
	f.counts[e]++
}

// Count returns the occurrences of e.
func (f *Frequencies) Count(e string) int { return f.counts[e] }

// Has reports whether e occurred.
func (f *Frequencies) Has(e string) bool { return f.counts[e] > 0 }

// Keys returns the distinct entities in first-appearance order.
func (f *Frequencies) Keys() []string { return append([]string(nil), f.order...) }

// Len returns the number of distinct entities.
func (f *Frequencies) Len() int { return len(f.order) }

// Empty reports whether no entity was counted.
func (f *Frequencies) Empty() bool { return len(f.order) == 0 }

// Total returns the number of occurrences across all entities.
func (f *Frequencies) Total() int {
	n := 0
	for _, c := range f.counts {
		n += c
	}
	return n
}

// TotalEdgeCount is the co-occurrence capacity of the table: peeling off
// each entity in turn as a ceiling, it sums min(ceiling, count) over the
// entities that remain.  The result equals the sum of min(a, b) over all
// unordered pairs, so it does not depend on peel order.  The table is not
// modified.
func TotalEdgeCount(f *Frequencies) int {
	if f == nil {
		return 0
	}
	counts := make([]int, len(f.order))
	for i, e := range f.order {
		counts[i] = f.counts[e]
	}
	total := 0
	for i, ceiling := range counts {
		for _, c := range counts[i+1:] {
			total += min(ceiling, c)
		}
	}
	return total
}

// ObservedEdgeCount sums the per-chunk capacity of every chunk.
func ObservedEdgeCount(chunks [][]string) int {
	total := 0
	for _, c := range chunks {
		total += TotalEdgeCount(CountFrequencies(c))
	}
	return total
}

// Retain drops from every chunk the entities missing from global.
func Retain(chunks [][]string, global *Frequencies) [][]string {
	out := make([][]string, len(chunks))
	for i, c := range chunks {
		kept := make([]string, 0, len(c))
		for _, e := range c {
			if global.Has(e) {
				kept = append(kept, e)
			}
		}
		out[i] = kept
	}
	return out
}

//Personal.AI order the ending
