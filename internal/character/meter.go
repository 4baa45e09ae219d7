package character

import (
	"math"
	"sort"
)

// SourceStats keeps per-ability performance details.
type SourceStats struct {
	Attempts  int
	Damage    float64
	MinDamage float64
	MaxDamage float64
	Outcomes  map[string]int
}

func newSourceStats() *SourceStats {
	return &SourceStats{
		MinDamage: math.MaxFloat64,
		Outcomes:  make(map[string]int),
	}
}

func (s *SourceStats) add(other *SourceStats) {
	s.Attempts += other.Attempts
	s.Damage += other.Damage
	if other.MinDamage < s.MinDamage {
		s.MinDamage = other.MinDamage
	}
	if other.MaxDamage > s.MaxDamage {
		s.MaxDamage = other.MaxDamage
	}
	for outcome, n := range other.Outcomes {
		s.Outcomes[outcome] += n
	}
}

// Meter accumulates damage per source for one fight.
type Meter struct {
	total   float64
	sources map[string]*SourceStats
}

// NewMeter returns an empty meter.
func NewMeter() *Meter {
	return &Meter{sources: make(map[string]*SourceStats)}
}

// Record adds one attempt by source with the resolved outcome and damage.
func (m *Meter) Record(source, outcome string, damage float64) {
	stats, ok := m.sources[source]
	if !ok {
		stats = newSourceStats()
		m.sources[source] = stats
	}
	stats.Attempts++
	stats.Outcomes[outcome]++
	if damage <= 0 {
		return
	}
	stats.Damage += damage
	if damage < stats.MinDamage {
		stats.MinDamage = damage
	}
	if damage > stats.MaxDamage {
		stats.MaxDamage = damage
	}
	m.total += damage
}

// Total returns all damage recorded.
func (m *Meter) Total() float64 {
	return m.total
}

// Source returns the stats of one source.
func (m *Meter) Source(name string) (*SourceStats, bool) {
	s, ok := m.sources[name]
	return s, ok
}

// Merge adds other into m.
func (m *Meter) Merge(other *Meter) {
	m.total += other.total
	for name, stats := range other.sources {
		if base, ok := m.sources[name]; ok {
			base.add(stats)
			continue
		}
		copied := newSourceStats()
		copied.add(stats)
		m.sources[name] = copied
	}
}

// Sources returns source names ordered by damage, highest first.
func (m *Meter) Sources() []string {
	names := make([]string, 0, len(m.sources))
	for name := range m.sources {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		di, dj := m.sources[names[i]].Damage, m.sources[names[j]].Damage
		if di == dj {
			return names[i] < names[j]
		}
		return di > dj
	})
	return names
}
