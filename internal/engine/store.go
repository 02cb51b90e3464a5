package engine

import (
	"sync"

	"github.com/ignite/campaign-optimizer/internal/segmentation"
)

// SnapshotStore holds the latest performance snapshot per campaign and the
// latest profile per customer. It is a pure data holder scoped to one engine
// instance: each ingestion overwrites the previous snapshot, and teardown is
// dropping the instance. No process-wide state.
type SnapshotStore struct {
	mu        sync.RWMutex
	campaigns map[string]*MetricSnapshot
	customers map[string]*segmentation.CustomerProfile
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		campaigns: make(map[string]*MetricSnapshot),
		customers: make(map[string]*segmentation.CustomerProfile),
	}
}

// PutCampaign stores or overwrites the snapshot for a campaign. Derived
// rates are recomputed on ingestion so stored snapshots are always
// internally consistent.
func (s *SnapshotStore) PutCampaign(snap *MetricSnapshot) {
	snap.Metrics.DeriveRates()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[snap.CampaignID] = snap
}

// Campaign returns the latest snapshot for a campaign id.
func (s *SnapshotStore) Campaign(id string) (*MetricSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snap, nil
}

// Campaigns returns all campaign snapshots in unspecified order.
func (s *SnapshotStore) Campaigns() []*MetricSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*MetricSnapshot, 0, len(s.campaigns))
	for _, snap := range s.campaigns {
		out = append(out, snap)
	}
	return out
}

// PutCustomer stores or overwrites a customer profile.
func (s *SnapshotStore) PutCustomer(p *segmentation.CustomerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[p.CustomerID] = p
}

// Customer returns the latest profile for a customer id.
func (s *SnapshotStore) Customer(id string) (*segmentation.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Customers returns all customer profiles in unspecified order.
func (s *SnapshotStore) Customers() []*segmentation.CustomerProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*segmentation.CustomerProfile, 0, len(s.customers))
	for _, p := range s.customers {
		out = append(out, p)
	}
	return out
}

// CampaignCount reports how many campaigns the store currently holds.
func (s *SnapshotStore) CampaignCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.campaigns)
}

// CustomerCount reports how many customers the store currently holds.
func (s *SnapshotStore) CustomerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}
