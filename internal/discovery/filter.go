package discovery

import "iter"

// Index answers whether a path was already classified by a previous run.
type Index interface {
	Contains(path string) bool
}

// FilterResumed drops paths present in index. onSkip, when set, observes
// every dropped path.
func FilterResumed(seq iter.Seq[string], index Index, onSkip func(string)) iter.Seq[string] {
	if index == nil {
		return seq
	}
	return func(yield func(string) bool) {
		for path := range seq {
			if index.Contains(path) {
				if onSkip != nil {
					onSkip(path)
				}
				continue
			}
			if !yield(path) {
				return
			}
		}
	}
}
