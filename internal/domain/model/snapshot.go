package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/okian/scoutlens/internal/domain/partition"
	"github.com/okian/scoutlens/internal/domain/source"
)

// Snapshot is the static per-player input a dashboard is built from.
type Snapshot struct {
	PlayerInfo     PlayerInfo         `json:"playerInfo"`
	Sources        []source.Name      `json:"sources,omitempty"`
	CommonStats    CommonStats        `json:"commonStats"`
	UniqueStats    []UniqueStat       `json:"uniqueStats"`
	RawStats       RawStats           `json:"rawStats,omitempty"`
	SubjectiveData []SubjectiveMetric `json:"subjectiveData"`
	RecentMatches  []RecentMatch      `json:"recentMatches,omitempty"`
	SiteFeatures   []SiteFeatures     `json:"siteFeatures,omitempty"`
}

// PlayerInfo is display data about the athlete.
type PlayerInfo struct {
	Name         string   `json:"name"`
	DateOfBirth  string   `json:"dateOfBirth,omitempty"`
	Age          int      `json:"age,omitempty"`
	PlaceOfBirth string   `json:"placeOfBirth,omitempty"`
	Height       string   `json:"height,omitempty"`
	Citizenship  []string `json:"citizenship,omitempty"`
	Position     string   `json:"position,omitempty"`
	Foot         string   `json:"foot,omitempty"`
	Team         string   `json:"team,omitempty"`
	PhotoURL     string   `json:"photoUrl,omitempty"`
}

// RecentMatch is one row of the recent matches table.
type RecentMatch struct {
	Date          string  `json:"date"`
	Opponent      string  `json:"opponent"`
	Result        string  `json:"result"`
	MinutesPlayed int     `json:"minutesPlayed"`
	Goals         int     `json:"goals"`
	Assists       int     `json:"assists"`
	YellowCards   int     `json:"yellowCards"`
	RedCards      int     `json:"redCards"`
	Rating        float64 `json:"rating"`
}

// SiteFeatures lists what a provider offers beyond the shared stats.
type SiteFeatures struct {
	SiteName string   `json:"siteName"`
	Features []string `json:"features"`
}

// CommonStat is a pre-split stat with the sites that report it.
type CommonStat struct {
	Value Value         `json:"value"`
	Sites []source.Name `json:"sites"`
}

// CommonStats keeps the document order of the commonStats object.
type CommonStats struct {
	Names []string
	Stats map[string]CommonStat
}

// Add appends or replaces a stat.
func (c *CommonStats) Add(name string, s CommonStat) {
	if c.Stats == nil {
		c.Stats = make(map[string]CommonStat)
	}
	if _, ok := c.Stats[name]; !ok {
		c.Names = append(c.Names, name)
	}
	c.Stats[name] = s
}

// UnmarshalJSON decodes the object preserving key order.
func (c *CommonStats) UnmarshalJSON(data []byte) error {
	*c = CommonStats{}
	if isNull(data) {
		return nil
	}
	return eachField(data, func(key string, raw json.RawMessage) error {
		var s CommonStat
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("commonStats %q: %w", key, err)
		}
		c.Add(key, s)
		return nil
	})
}

// MarshalJSON encodes the object in stored order.
func (c CommonStats) MarshalJSON() ([]byte, error) {
	var w objectWriter
	for _, name := range c.Names {
		w.field(name, c.Stats[name])
	}
	return w.bytes()
}

// UniqueStat is a pre-split stat owned by one source.
type UniqueStat struct {
	Stat   string      `json:"stat"`
	Value  Value       `json:"value"`
	Source source.Name `json:"source"`
}

// RawStat is an objective stat with a value per source, not yet split.
type RawStat struct {
	Name   string
	Record source.Record[Value]
}

// RawStats decodes {"<stat>": {"<source>": value|null, ...}, ...} in order.
type RawStats []RawStat

// UnmarshalJSON decodes the nested objects preserving both key orders.
func (r *RawStats) UnmarshalJSON(data []byte) error {
	*r = nil
	if isNull(data) {
		return nil
	}
	return eachField(data, func(stat string, raw json.RawMessage) error {
		var rec source.Record[Value]
		err := eachField(raw, func(src string, rv json.RawMessage) error {
			if isNull(rv) {
				rec.Declare(source.Name(src))
				return nil
			}
			var v Value
			if err := json.Unmarshal(rv, &v); err != nil {
				return err
			}
			rec.Set(source.Name(src), v)
			return nil
		})
		if err != nil {
			return fmt.Errorf("rawStats %q: %w", stat, err)
		}
		*r = append(*r, RawStat{Name: stat, Record: rec})
		return nil
	})
}

// MarshalJSON encodes present values only.
func (r RawStats) MarshalJSON() ([]byte, error) {
	var outer objectWriter
	for _, st := range r {
		var inner objectWriter
		for _, e := range st.Record.Present() {
			inner.field(string(e.Source), e.Value)
		}
		b, err := inner.bytes()
		if err != nil {
			return nil, err
		}
		outer.field(st.Name, json.RawMessage(b))
	}
	return outer.bytes()
}

// SubjectiveMetric is one qualitative measurement across providers. Any key
// other than "metric" and "average" names a provider.
type SubjectiveMetric struct {
	Metric string
	// Supplied is the provider-side average, kept only to measure drift.
	Supplied *float64
	Sources  source.Record[float64]
}

// UnmarshalJSON decodes the open-ended record keeping provider order. A null
// reading means the provider did not report.
func (m *SubjectiveMetric) UnmarshalJSON(data []byte) error {
	*m = SubjectiveMetric{}
	return eachField(data, func(key string, raw json.RawMessage) error {
		switch key {
		case source.KeyMetric:
			return json.Unmarshal(raw, &m.Metric)
		case source.KeyAverage:
			if isNull(raw) {
				return nil
			}
			var avg float64
			if err := json.Unmarshal(raw, &avg); err != nil {
				return fmt.Errorf("%w: average: %v", ErrInvalidSnapshot, err)
			}
			m.Supplied = &avg
			return nil
		}
		if isNull(raw) {
			m.Sources.Declare(source.Name(key))
			return nil
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("%w: %s reading %s", ErrInvalidSnapshot, key, raw)
		}
		m.Sources.Set(source.Name(key), v)
		return nil
	})
}

// MarshalJSON writes metric, average, then providers in order.
func (m SubjectiveMetric) MarshalJSON() ([]byte, error) {
	var w objectWriter
	w.field(source.KeyMetric, m.Metric)
	if m.Supplied != nil {
		w.field(source.KeyAverage, *m.Supplied)
	}
	for _, e := range m.Sources.Present() {
		w.field(string(e.Source), e.Value)
	}
	return w.bytes()
}

// Validate checks the structural rules a dashboard relies on.
func (s *Snapshot) Validate() error {
	seen := make(map[string]struct{}, len(s.SubjectiveData))
	for i, m := range s.SubjectiveData {
		name := strings.TrimSpace(m.Metric)
		if name == "" {
			return fmt.Errorf("%w: subjectiveData[%d] has no metric name", ErrInvalidSnapshot, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateMetric, name)
		}
		seen[name] = struct{}{}
		if m.Supplied != nil && (math.IsNaN(*m.Supplied) || math.IsInf(*m.Supplied, 0)) {
			return fmt.Errorf("%w: %q average is not finite", ErrInvalidSnapshot, name)
		}
	}
	for _, name := range s.CommonStats.Names {
		if len(s.CommonStats.Stats[name].Sites) == 0 {
			return fmt.Errorf("%w: common stat %q lists no sites", ErrInvalidSnapshot, name)
		}
	}
	for i, u := range s.UniqueStats {
		if strings.TrimSpace(u.Stat) == "" || u.Source == "" {
			return fmt.Errorf("%w: uniqueStats[%d] needs stat and source", ErrInvalidSnapshot, i)
		}
		if _, common := s.CommonStats.Stats[u.Stat]; common {
			return fmt.Errorf("%w: stat %q is both common and unique to %s", ErrInvalidSnapshot, u.Stat, u.Source)
		}
	}
	return nil
}

// Metric returns the subjective metric with the given name.
func (s *Snapshot) Metric(name string) (SubjectiveMetric, bool) {
	for _, m := range s.SubjectiveData {
		if m.Metric == name {
			return m, true
		}
	}
	return SubjectiveMetric{}, false
}

// StatRecords flattens every objective section into per-source records in
// document order: commonStats, uniqueStats, then rawStats. A stat named in
// more than one section is merged into a single record. Validate refuses a
// name shared by commonStats and uniqueStats, so only rawStats and repeated
// uniqueStats rows merge in practice.
func (s *Snapshot) StatRecords() []partition.Stat[Value] {
	var (
		out   []partition.Stat[Value]
		index = make(map[string]int)
	)
	recordFor := func(name string) *source.Record[Value] {
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, partition.Stat[Value]{Name: name})
		}
		return &out[i].Record
	}

	for _, name := range s.CommonStats.Names {
		st := s.CommonStats.Stats[name]
		rec := recordFor(name)
		for _, site := range st.Sites {
			rec.Set(site, st.Value)
		}
	}
	for _, u := range s.UniqueStats {
		recordFor(u.Stat).Set(u.Source, u.Value)
	}
	for _, raw := range s.RawStats {
		rec := recordFor(raw.Name)
		for _, e := range raw.Record.Present() {
			rec.Set(e.Source, e.Value)
		}
	}
	return out
}

// DeclaresSources reports whether the snapshot lists its providers rather
// than leaving them to be inferred.
func (s *Snapshot) DeclaresSources() bool { return len(s.Sources) > 0 }

// KnownSources returns the providers objective stats are judged against: the
// declared sources list, else the sites of the common stats, else every
// provider that reported an objective stat.
func (s *Snapshot) KnownSources() source.Names {
	if len(s.Sources) > 0 {
		return source.NewNames(s.Sources...)
	}
	var known source.Names
	for _, name := range s.CommonStats.Names {
		for _, site := range s.CommonStats.Stats[name].Sites {
			known.Add(site)
		}
	}
	if known.Len() > 0 {
		return known
	}
	for _, st := range s.StatRecords() {
		for _, n := range st.Record.Names() {
			known.Add(n)
		}
	}
	return known
}
