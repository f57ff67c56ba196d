package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps the ledger in process memory. It backs tests and local
// development; the mutex gives it the same per-job serialization the Mongo
// store gets from conditional updates.
type MemoryStore struct {
	mu         sync.Mutex
	requests   map[string]*ServiceRequest
	milestones map[string]*Milestone
	events     map[string]ProcessedEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:   make(map[string]*ServiceRequest),
		milestones: make(map[string]*Milestone),
		events:     make(map[string]ProcessedEvent),
	}
}

func (s *MemoryStore) CreateServiceRequest(ctx context.Context, req *ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = StatusInProgress
	}
	req.CreatedAt = now
	req.UpdatedAt = now

	clone := *req
	s.requests[req.ID] = &clone
	return nil
}

func (s *MemoryStore) GetServiceRequest(ctx context.Context, id string) (*ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *MemoryStore) ApplyPayment(ctx context.Context, id string, p PaymentApplication) (*ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	if req.ProgressPaid+p.ProgressDelta > req.ProgressActual {
		return nil, ErrProgressConflict
	}

	req.PaymentsPending -= p.AmountDue
	req.ProgressPaid += p.ProgressDelta
	req.PaymentsMade += p.AmountDue
	req.Version++
	req.UpdatedAt = time.Now().UTC()

	clone := *req
	return &clone, nil
}

func (s *MemoryStore) SetProgressActual(ctx context.Context, id string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.ProgressActual = progress
	req.Version++
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	req.Version++
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) InsertMilestones(ctx context.Context, milestones []*Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, m := range milestones {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Status == "" {
			m.Status = MilestonePending
		}
		m.CreatedAt = now
		clone := *m
		s.milestones[m.ID] = &clone
	}
	return nil
}

func (s *MemoryStore) ListMilestones(ctx context.Context, jobID string) ([]*Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	milestones := []*Milestone{}
	for _, m := range s.milestones {
		if m.JobID == jobID {
			clone := *m
			milestones = append(milestones, &clone)
		}
	}
	sort.Slice(milestones, func(i, j int) bool {
		if !milestones[i].DueDate.Equal(milestones[j].DueDate) {
			return milestones[i].DueDate.Before(milestones[j].DueDate)
		}
		return milestones[i].ID < milestones[j].ID
	})
	return milestones, nil
}

func (s *MemoryStore) GetMilestone(ctx context.Context, id string) (*Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.milestones[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *MemoryStore) CompleteMilestone(ctx context.Context, id string) (*Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.milestones[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.Status = MilestoneCompleted
	clone := *m
	return &clone, nil
}

func (s *MemoryStore) ReserveEvent(ctx context.Context, ev ProcessedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ev.Reference]; ok {
		return ErrDuplicateEvent
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	s.events[ev.Reference] = ev
	return nil
}

func (s *MemoryStore) ReleaseEvent(ctx context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.events, reference)
	return nil
}

func (s *MemoryStore) Health(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
