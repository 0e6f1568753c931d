// Package profile keeps the player's local records: best solve time and solve counts per
// puzzle type. Records are YAML encoded and stored through gdata.
package profile

import (
	"fmt"
	"sort"
	"time"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"heist/pkg/game/puzzle"
)

// AppName is the gdata application directory.
const AppName = "heist"

// Storage keys
const (
	recordsObject   = "profile"
	recordsProperty = "records"
)

// Record is the history of one puzzle type.
type Record struct {
	Best     time.Duration `yaml:"best"`
	Solves   int           `yaml:"solves"`
	Attempts int           `yaml:"attempts"`
	Heists   int           `yaml:"heists,omitempty"` // Completed runs, only on the vault record
}

// Profile is the set of records. A nil gdata manager keeps records in memory only.
type Profile struct {
	store   *gdata.Manager
	log     *zap.Logger
	records map[puzzle.Type]Record
}

// Open opens the platform data directory for AppName.
func Open() (*gdata.Manager, error) {
	m, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		return nil, fmt.Errorf("open save data: %w", err)
	}
	return m, nil
}

// New creates a profile and loads saved records. A failed load is logged and leaves the profile
// empty.
func New(store *gdata.Manager, log *zap.Logger) *Profile {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Profile{store: store, log: log.Named("profile"), records: make(map[puzzle.Type]Record)}
	if err := p.Load(); err != nil {
		p.log.Warn("failed to load profile, starting fresh", zap.Error(err))
	}
	return p
}

// Load replaces the in-memory records with the saved ones.
func (p *Profile) Load() error {
	if p.store == nil || !p.store.ObjectPropExists(recordsObject, recordsProperty) {
		return nil
	}
	data, err := p.store.LoadObjectProp(recordsObject, recordsProperty)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	records := make(map[puzzle.Type]Record)
	if err := yaml.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to unmarshal records: %w", err)
	}
	p.records = records
	return nil
}

// Save writes the records. It is a no-op without a store.
func (p *Profile) Save() error {
	if p.store == nil {
		return nil
	}
	data, err := yaml.Marshal(p.records)
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}
	if err := p.store.SaveObjectProp(recordsObject, recordsProperty, data); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}

// RecordAttempt counts one mounted puzzle.
func (p *Profile) RecordAttempt(t puzzle.Type) {
	r := p.records[t]
	r.Attempts++
	p.records[t] = r
}

// RecordSolve counts a solve taking d and reports whether it set a new best time.
func (p *Profile) RecordSolve(t puzzle.Type, d time.Duration) bool {
	r := p.records[t]
	r.Solves++
	best := r.Best == 0 || d < r.Best
	if best {
		r.Best = d
	}
	p.records[t] = r
	if best {
		p.log.Info("new best time", zap.String("type", string(t)), zap.Duration("time", d))
	}
	return best
}

// RecordHeist counts a completed heist.
func (p *Profile) RecordHeist() {
	r := p.records[puzzle.TypeVault]
	r.Heists++
	p.records[puzzle.TypeVault] = r
}

// Get returns the record for t.
func (p *Profile) Get(t puzzle.Type) Record {
	return p.records[t]
}

// Types returns the puzzle types with a record, sorted.
func (p *Profile) Types() []puzzle.Type {
	types := make([]puzzle.Type, 0, len(p.records))
	for t := range p.records {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
