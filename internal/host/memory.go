package host

import (
	"sync"

	"github.com/dbsmedya/questexport/internal/layout"
)

// StaticRecord is a Record backed by Go memory.
type StaticRecord struct {
	ID      uint32
	Type    FormType
	Name    string
	HasName bool
	Raw     []byte
}

// NewQuestRecord builds a quest record whose memory carries stage at the
// contract offset. An empty name is stored as a null name.
func NewQuestRecord(id uint32, name string, stage uint16, c layout.Contract) *StaticRecord {
	return &StaticRecord{
		ID:      id,
		Type:    FormTypeQuest,
		Name:    name,
		HasName: name != "",
		Raw:     c.EncodeStage(nil, stage),
	}
}

func (r *StaticRecord) FormID() uint32 { return r.ID }
func (r *StaticRecord) Kind() FormType { return r.Type }
func (r *StaticRecord) FullName() (string, bool) { return r.Name, r.HasName }
func (r *StaticRecord) Memory() []byte { return r.Raw }

// MemoryRegistry is an in-process Registry. It is safe for concurrent use so
// that a simulated host can mutate it while a pass is enumerating.
type MemoryRegistry struct {
	mu      sync.RWMutex
	records map[uint32]Record
	next    uint32
}

// NewMemoryRegistry creates an empty registry whose next identifier is 1.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		records: make(map[uint32]Record),
		next:    1,
	}
}

// Put stores rec under its FormID and advances the high-water mark past it.
func (m *MemoryRegistry) Put(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := rec.FormID()
	m.records[id] = rec
	if id >= m.next {
		m.next = id + 1
	}
}

// Remove deletes a record. The high-water mark does not move back.
func (m *MemoryRegistry) Remove(id uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

// Len returns the number of allocated records.
func (m *MemoryRegistry) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// HighWaterMark implements Registry.
func (m *MemoryRegistry) HighWaterMark() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.next
}

// Lookup implements Registry.
func (m *MemoryRegistry) Lookup(id uint32) (Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	return rec, ok
}

// StaticHost is a host Interface over a fixed registry. A nil registry
// reports the host as not yet initialized.
type StaticHost struct {
	Reg     Registry
	Version RuntimeVersion
}

// Registry implements Provider.
func (h *StaticHost) Registry() (Registry, bool) {
	if h.Reg == nil {
		return nil, false
	}
	return h.Reg, true
}

// RuntimeVersion implements Interface.
func (h *StaticHost) RuntimeVersion() RuntimeVersion {
	return h.Version
}
