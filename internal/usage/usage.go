// Package usage tracks how often each model name has been used within one
// browser session.
package usage

import "sort"

// Counts maps a case-sensitive model name to its use count. A nil Counts is
// an uninitialized tracker: reads return zero values and Note allocates.
type Counts map[string]int

// Note increments the count for model by one. Every call is a real increment.
func Note(counts Counts, model string) Counts {
	if counts == nil {
		counts = Counts{}
	}
	counts[model]++
	return counts
}

func (c Counts) Count(model string) int {
	return c[model]
}

// Sorted orders model names by count descending, then name ascending.
func (c Counts) Sorted() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if c[names[i]] != c[names[j]] {
			return c[names[i]] > c[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func (c Counts) Clone() Counts {
	if c == nil {
		return nil
	}
	cloned := make(Counts, len(c))
	for name, count := range c {
		cloned[name] = count
	}
	return cloned
}
