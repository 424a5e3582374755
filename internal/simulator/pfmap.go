package simulator

import (
	"iter"

	"github.com/ciricc/go-gemm-bench/internal/model/opconfig"
	"github.com/ciricc/go-gemm-bench/internal/model/perf"
)

type pfEntry struct {
	cfg opconfig.Config
	rec perf.Record
}

// PfMap maps configurations to performance records. There is one entry per
// distinct configuration; recording a configuration again overwrites its
// entry in place. Iteration follows first-insertion order.
type PfMap struct {
	order   []opconfig.Key
	entries map[opconfig.Key]pfEntry
}

func NewPfMap() *PfMap {
	return &PfMap{entries: make(map[opconfig.Key]pfEntry)}
}

func (m *PfMap) Put(cfg opconfig.Config, rec perf.Record) {
	key := cfg.Key()
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = pfEntry{cfg: cfg, rec: rec}
}

func (m *PfMap) Get(cfg opconfig.Config) (perf.Record, bool) {
	e, ok := m.entries[cfg.Key()]
	return e.rec, ok
}

func (m *PfMap) Len() int { return len(m.entries) }

func (m *PfMap) All() iter.Seq2[opconfig.Config, perf.Record] {
	return func(yield func(opconfig.Config, perf.Record) bool) {
		for _, key := range m.order {
			e := m.entries[key]
			if !yield(e.cfg, e.rec) {
				return
			}
		}
	}
}

// Clone returns an independent copy.
func (m *PfMap) Clone() *PfMap {
	out := NewPfMap()
	for cfg, rec := range m.All() {
		out.Put(cfg, perf.NewRecord(rec.AvgDurationMs, rec.Throughput, rec.Extra))
	}
	return out
}
