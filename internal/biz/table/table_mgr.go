package table

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/zhenjl/cityhash"
)

const (
	bucketCount = 32
	idAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength    = 12
)

type bucket struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

// Manager 桌子管理, sharded by a hash of the table id.
type Manager struct {
	repo     Repo
	buckets  [bucketCount]*bucket
	count    atomic.Int64 // live tables plus slots reserved by Create
	reaperID int64
}

func NewManager(repo Repo) *Manager {
	m := &Manager{repo: repo}
	for i := range m.buckets {
		m.buckets[i] = &bucket{tables: make(map[string]*Table)}
	}
	return m
}

// Start arms the reaper that evicts finished tables.
func (m *Manager) Start() error {
	interval := m.repo.GetRoomConfig().Game.ReapInterval.Std()
	m.reaperID = m.repo.GetTimer().Forever(interval, m.reap)
	log.Infof("table manager started. reap every %v", interval)
	return nil
}

func (m *Manager) Close() {
	if m.reaperID > 0 {
		m.repo.GetTimer().Cancel(m.reaperID)
	}
	for _, t := range m.List() {
		m.Remove(t.ID)
	}
}

func (m *Manager) bucketOf(id string) *bucket {
	h := cityhash.CityHash64([]byte(id), uint32(len(id)))
	return m.buckets[h%bucketCount]
}

func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// Create 建桌. The table starts immediately; an ai first seat begins to play.
func (m *Manager) Create(opts CreateOptions) (*Table, error) {
	n := m.count.Add(1)
	if limit := m.repo.GetRoomConfig().Game.MaxTables; limit > 0 && n > int64(limit) {
		m.count.Add(-1)
		return nil, ErrTooManyTables
	}
	id, err := NewID()
	if err != nil {
		m.count.Add(-1)
		return nil, err
	}
	t, err := NewTable(id, opts, m.repo)
	if err != nil {
		m.count.Add(-1)
		return nil, err
	}
	b := m.bucketOf(id)
	b.mu.Lock()
	b.tables[id] = t
	b.mu.Unlock()

	t.start()
	log.Infof("table created. %s", t.Desc())
	return t, nil
}

// Restore 从快照恢复桌子. An already live table wins over the snapshot.
func (m *Manager) Restore(s Snapshot) (*Table, error) {
	b := m.bucketOf(s.ID)
	b.mu.Lock()
	if t, ok := b.tables[s.ID]; ok {
		b.mu.Unlock()
		return t, nil
	}
	t, err := restoreTable(s, m.repo)
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.tables[s.ID] = t
	m.count.Add(1)
	b.mu.Unlock()

	t.start()
	log.Infof("table restored. %s", t.Desc())
	return t, nil
}

func (m *Manager) Get(id string) (*Table, bool) {
	b := m.bucketOf(id)
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tables[id]
	return t, ok
}

// Remove closes and forgets a table.
func (m *Manager) Remove(id string) bool {
	b := m.bucketOf(id)
	b.mu.Lock()
	t, ok := b.tables[id]
	delete(b.tables, id)
	b.mu.Unlock()
	if ok {
		m.count.Add(-1)
		t.Close()
	}
	return ok
}

// List returns live tables, oldest first.
func (m *Manager) List() []*Table {
	var tables []*Table
	for _, b := range m.buckets {
		b.mu.RLock()
		for _, t := range b.tables {
			tables = append(tables, t)
		}
		b.mu.RUnlock()
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].createdAt.Equal(tables[j].createdAt) {
			return tables[i].ID < tables[j].ID
		}
		return tables[i].createdAt.Before(tables[j].createdAt)
	})
	return tables
}

func (m *Manager) Len() int { return int(m.count.Load()) }

// reap 清理已结束超时的桌子
func (m *Manager) reap() {
	ttl := m.repo.GetRoomConfig().Game.FinishedTTL.Std()
	now := time.Now()
	for _, t := range m.List() {
		at := t.FinishedAt()
		if at.IsZero() || now.Sub(at) < ttl {
			continue
		}
		if m.Remove(t.ID) {
			log.Infof("finished table reaped. tb=%s finished=%v", t.ID, at.Format(time.DateTime))
		}
	}
}
