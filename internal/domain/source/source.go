// Package source models sparse, provider-keyed readings.
//
// A Record maps provider names to optional values. Providers are an open set:
// any non-empty name is valid and adding one never requires a schema change.
// A name that is present with no value is indistinguishable from a name that
// was never set.
package source

// Name identifies a data provider, e.g. "FotMob" or "SofaScore".
type Name string

// String returns the provider name.
func (n Name) String() string { return string(n) }

// Reserved keys of an open-ended subjective record. Every other key is a
// provider name.
const (
	KeyMetric  = "metric"
	KeyAverage = "average"
)

// IsReserved reports whether key is a metadata key rather than a provider.
func IsReserved(key string) bool {
	return key == KeyMetric || key == KeyAverage
}

// Entry is one present (provider, value) pair.
type Entry[T any] struct {
	Source Name `json:"source"`
	Value  T    `json:"value"`
}

// slot keeps the value alongside its presence flag so that ordering survives
// Unset followed by Set.
type slot[T any] struct {
	value   T
	present bool
}

// Record is an insertion-ordered mapping from provider to optional value.
// The zero value is ready to use. A Record is not safe for concurrent
// mutation; readers may share it once construction is finished.
type Record[T any] struct {
	order []Name
	slots map[Name]slot[T]
}

// NewRecord builds a record from entries, keeping their order. Later entries
// for the same provider overwrite earlier ones in place.
func NewRecord[T any](entries ...Entry[T]) Record[T] {
	var r Record[T]
	for _, e := range entries {
		r.Set(e.Source, e.Value)
	}
	return r
}

// Set records v for name. The first Set or Declare of a name fixes its position.
func (r *Record[T]) Set(name Name, v T) {
	r.touch(name)
	r.slots[name] = slot[T]{value: v, present: true}
}

// Declare registers name without a value, the equivalent of a JSON null.
func (r *Record[T]) Declare(name Name) {
	r.touch(name)
}

// Unset marks name as not reporting. Its position is kept.
func (r *Record[T]) Unset(name Name) {
	if s, ok := r.slots[name]; ok {
		var zero T
		s.value, s.present = zero, false
		r.slots[name] = s
	}
}

func (r *Record[T]) touch(name Name) {
	if r.slots == nil {
		r.slots = make(map[Name]slot[T])
	}
	if _, ok := r.slots[name]; !ok {
		r.order = append(r.order, name)
		r.slots[name] = slot[T]{}
	}
}

// Get returns the value reported by name, if any.
func (r Record[T]) Get(name Name) (T, bool) {
	s := r.slots[name]
	return s.value, s.present
}

// Has reports whether name has a present value.
func (r Record[T]) Has(name Name) bool {
	return r.slots[name].present
}

// Len returns the number of present values.
func (r Record[T]) Len() int {
	n := 0
	for _, s := range r.slots {
		if s.present {
			n++
		}
	}
	return n
}

// Present returns the present values in insertion order.
func (r Record[T]) Present() []Entry[T] {
	out := make([]Entry[T], 0, len(r.order))
	for _, name := range r.order {
		if s := r.slots[name]; s.present {
			out = append(out, Entry[T]{Source: name, Value: s.value})
		}
	}
	return out
}

// Names returns the providers with a present value, in insertion order.
func (r Record[T]) Names() []Name {
	out := make([]Name, 0, len(r.order))
	for _, name := range r.order {
		if r.slots[name].present {
			out = append(out, name)
		}
	}
	return out
}

// Clone returns an independent copy.
func (r Record[T]) Clone() Record[T] {
	c := Record[T]{order: append([]Name(nil), r.order...)}
	if r.slots != nil {
		c.slots = make(map[Name]slot[T], len(r.slots))
		for k, v := range r.slots {
			c.slots[k] = v
		}
	}
	return c
}

// Names is an insertion-ordered set of providers.
type Names struct {
	order []Name
	index map[Name]struct{}
}

// NewNames builds a set, ignoring duplicates and empty names.
func NewNames(names ...Name) Names {
	var s Names
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name if it is new and non-empty.
func (s *Names) Add(name Name) {
	if name == "" {
		return
	}
	if s.index == nil {
		s.index = make(map[Name]struct{})
	}
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = struct{}{}
	s.order = append(s.order, name)
}

// Contains reports membership.
func (s Names) Contains(name Name) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the set size.
func (s Names) Len() int { return len(s.order) }

// Slice returns the members in insertion order.
func (s Names) Slice() []Name {
	return append([]Name(nil), s.order...)
}
