// Package partition splits objective stats into those every known source
// reports and those exactly one source reports.
//
// Common means present at every known source. Values are not compared across
// sources; the first known source in record order supplies the value. A stat
// with two or more reporters that still misses a known source has no defined
// place and is rejected with an *AmbiguousError.
//
// With a single declared known source every stat it reports is common. When
// the known set was inferred, see WithInferredSources.
package partition

import (
	"github.com/okian/scoutlens/internal/domain/source"
)

// Stat is one named objective stat with its per-source values.
type Stat[T any] struct {
	Name   string
	Record source.Record[T]
}

// CommonStat is a stat every known source reports.
type CommonStat[T any] struct {
	Value T             `json:"value"`
	Sites []source.Name `json:"sites"`
}

// UniqueStat is a stat reported by a single source.
type UniqueStat[T any] struct {
	Label  string      `json:"stat"`
	Value  T           `json:"value"`
	Source source.Name `json:"source"`
}

// Result holds both classes. Order lists the common stat names in input order.
type Result[T any] struct {
	Common map[string]CommonStat[T] `json:"common"`
	Order  []string                 `json:"order"`
	Unique []UniqueStat[T]          `json:"unique"`
}

// Option tunes Partition.
type Option func(*options)

type options struct {
	inferred bool
	marked   map[string]struct{}
}

// WithInferredSources is for a known set derived from the stats themselves
// rather than declared. A stat with a single reporter then stays unique even
// when that reporter is the only known source, unless its name is in
// markedCommon.
func WithInferredSources(markedCommon ...string) Option {
	return func(o *options) {
		o.inferred = true
		o.marked = make(map[string]struct{}, len(markedCommon))
		for _, name := range markedCommon {
			o.marked[name] = struct{}{}
		}
	}
}

// Partition classifies stats against known. It stops at the first ambiguous
// stat. Stats nobody reports are skipped.
func Partition[T any](stats []Stat[T], known source.Names, opts ...Option) (Result[T], error) {
	if known.Len() == 0 {
		return Result[T]{}, ErrNoKnownSources
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := Result[T]{
		Common: make(map[string]CommonStat[T]),
		Order:  make([]string, 0, len(stats)),
		Unique: make([]UniqueStat[T], 0),
	}

	for _, st := range stats {
		present := st.Record.Present()
		if len(present) == 0 {
			continue
		}

		if len(present) == 1 && o.loneStaysUnique(st.Name) {
			res.Unique = append(res.Unique, unique(st.Name, present[0]))
			continue
		}

		if c, ok := common(present, known); ok {
			if _, seen := res.Common[st.Name]; !seen {
				res.Order = append(res.Order, st.Name)
			}
			res.Common[st.Name] = c
			continue
		}

		if len(present) == 1 {
			res.Unique = append(res.Unique, unique(st.Name, present[0]))
			continue
		}

		reporters := make([]source.Name, len(present))
		for i, e := range present {
			reporters[i] = e.Source
		}
		return Result[T]{}, &AmbiguousError{Stat: st.Name, Reporters: reporters, Known: known.Len()}
	}

	return res, nil
}

func (o *options) loneStaysUnique(name string) bool {
	if !o.inferred {
		return false
	}
	_, marked := o.marked[name]
	return !marked
}

func unique[T any](name string, e source.Entry[T]) UniqueStat[T] {
	return UniqueStat[T]{Label: name, Value: e.Value, Source: e.Source}
}

// common returns the CommonStat when every known source is among present.
func common[T any](present []source.Entry[T], known source.Names) (CommonStat[T], bool) {
	covered := 0
	var (
		value    T
		hasValue bool
	)
	sites := make([]source.Name, 0, len(present))
	for _, e := range present {
		sites = append(sites, e.Source)
		if !known.Contains(e.Source) {
			continue
		}
		covered++
		if !hasValue {
			value, hasValue = e.Value, true
		}
	}
	if covered != known.Len() {
		return CommonStat[T]{}, false
	}
	return CommonStat[T]{Value: value, Sites: sites}, true
}
