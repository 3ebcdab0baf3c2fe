package resolution

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/restinspect/platform/pkg/common/models"
)

var errInjected = errors.New("injected failure")

// memoryStore is an in-memory Store whose WithTx restores a snapshot when fn fails.
type memoryStore struct {
	mu          sync.Mutex
	restaurants map[int64]models.Restaurant
	inspections map[string]int64
	edges       []models.LinkEdge

	// failEdgeFor makes InsertLinkEdge fail for that original id.
	failEdgeFor int64
	// listGate blocks ListUnresolvedRestaurants until closed when set.
	listGate chan struct{}
	listed   chan struct{}
}

func newMemoryStore(records ...models.Restaurant) *memoryStore {
	s := &memoryStore{
		restaurants: make(map[int64]models.Restaurant),
		inspections: make(map[string]int64),
	}
	for _, r := range records {
		s.restaurants[r.ID] = r
	}
	return s
}

func (s *memoryStore) add(r models.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restaurants[r.ID] = r
}

func (s *memoryStore) list(resolved bool) []models.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Restaurant
	for _, r := range s.restaurants {
		if r.Resolved == resolved {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) ListUnresolvedRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	if s.listGate != nil {
		if s.listed != nil {
			close(s.listed)
		}
		<-s.listGate
	}
	return s.list(false), nil
}

func (s *memoryStore) ListResolvedRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.list(true), nil
}

func (s *memoryStore) WithTx(ctx context.Context, fn func(w LinkWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	restaurants := make(map[int64]models.Restaurant, len(s.restaurants))
	for k, v := range s.restaurants {
		restaurants[k] = v
	}
	inspections := make(map[string]int64, len(s.inspections))
	for k, v := range s.inspections {
		inspections[k] = v
	}
	edges := append([]models.LinkEdge(nil), s.edges...)

	if err := fn(memoryWriter{s}); err != nil {
		s.restaurants, s.inspections, s.edges = restaurants, inspections, edges
		return err
	}
	return nil
}

func (s *memoryStore) edgeSet() []models.LinkEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LinkEdge(nil), s.edges...)
}

func (s *memoryStore) restaurant(id int64) models.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restaurants[id]
}

func (s *memoryStore) inspectionOwner(id string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspections[id]
}

// memoryWriter runs with memoryStore.mu held.
type memoryWriter struct{ s *memoryStore }

func (w memoryWriter) UpdateRestaurant(ctx context.Context, id int64, name, address string) error {
	r := w.s.restaurants[id]
	r.Name, r.Address = name, address
	w.s.restaurants[id] = r
	return nil
}

func (w memoryWriter) SetResolved(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		r := w.s.restaurants[id]
		r.Resolved = true
		w.s.restaurants[id] = r
	}
	return nil
}

func (w memoryWriter) InsertLinkEdge(ctx context.Context, primaryID, originalID int64) error {
	if w.s.failEdgeFor != 0 && originalID == w.s.failEdgeFor {
		return errInjected
	}
	for _, e := range w.s.edges {
		if e.OriginalID == originalID {
			return errors.New("duplicate edge")
		}
	}
	w.s.edges = append(w.s.edges, models.LinkEdge{PrimaryID: primaryID, OriginalID: originalID})
	return nil
}

func (w memoryWriter) RepointInspections(ctx context.Context, oldID, newID int64) error {
	for k, v := range w.s.inspections {
		if v == oldID {
			w.s.inspections[k] = newID
		}
	}
	return nil
}
