package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/phrazzld/policyhub-api/internal/domain"
	"github.com/phrazzld/policyhub-api/internal/store"
)

// ScheduledMessageStore implements store.ScheduledMessageStore.
type ScheduledMessageStore struct{ db *DB }

var _ store.ScheduledMessageStore = (*ScheduledMessageStore)(nil)

func (s *ScheduledMessageStore) Create(_ context.Context, msg *domain.ScheduledMessage) error {
	if err := msg.Validate(); err != nil {
		return invalidEntity(err)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if _, ok := s.db.messages[msg.JobID]; ok {
		return store.ErrJobIDExists
	}
	s.db.messages[msg.JobID] = cloneMessage(*msg)
	return nil
}

func (s *ScheduledMessageStore) GetByJobID(_ context.Context, jobID string) (*domain.ScheduledMessage, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	msg, ok := s.db.messages[jobID]
	if !ok {
		return nil, store.ErrScheduledMessageNotFound
	}
	out := cloneMessage(msg)
	return &out, nil
}

func (s *ScheduledMessageStore) List(
	_ context.Context,
	status *domain.ScheduledMessageStatus,
) ([]*domain.ScheduledMessage, error) {
	return s.collect(func(m domain.ScheduledMessage) bool {
		return status == nil || m.Status == *status
	}), nil
}

func (s *ScheduledMessageStore) ListPendingAfter(
	_ context.Context,
	t time.Time,
) ([]*domain.ScheduledMessage, error) {
	return s.collect(func(m domain.ScheduledMessage) bool {
		return m.Status == domain.ScheduledMessageStatusPending && m.FireAt.After(t)
	}), nil
}

func (s *ScheduledMessageStore) Transition(
	_ context.Context,
	jobID string,
	to domain.ScheduledMessageStatus,
	executedAt *time.Time,
	lastError string,
) error {
	if !to.IsTerminal() {
		return invalidEntity(domain.ErrInvalidScheduleStatus)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	msg, ok := s.db.messages[jobID]
	if !ok || msg.Status != domain.ScheduledMessageStatusPending {
		return store.ErrScheduledMessageNotPending
	}

	msg.Status = to
	msg.LastError = lastError
	msg.ExecutedAt = nil
	if executedAt != nil {
		t := *executedAt
		msg.ExecutedAt = &t
	}
	s.db.messages[jobID] = msg
	return nil
}

func (s *ScheduledMessageStore) ExpireOverdue(
	_ context.Context,
	cutoff time.Time,
	skip []string,
) ([]string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	var expired []string
	for jobID, msg := range s.db.messages {
		if msg.Status != domain.ScheduledMessageStatusPending || msg.FireAt.After(cutoff) {
			continue
		}
		if slices.Contains(skip, jobID) {
			continue
		}
		msg.Status = domain.ScheduledMessageStatusExpired
		s.db.messages[jobID] = msg
		expired = append(expired, jobID)
	}
	sort.Strings(expired)
	return expired, nil
}

func (s *ScheduledMessageStore) CountByStatus(_ context.Context) (map[domain.ScheduledMessageStatus]int, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	counts := make(map[domain.ScheduledMessageStatus]int, len(domain.ScheduledMessageStatuses))
	for _, msg := range s.db.messages {
		counts[msg.Status]++
	}
	return counts, nil
}

func (s *ScheduledMessageStore) collect(keep func(domain.ScheduledMessage) bool) []*domain.ScheduledMessage {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var out []*domain.ScheduledMessage
	for _, msg := range s.db.messages {
		if keep(msg) {
			m := cloneMessage(msg)
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

func cloneMessage(m domain.ScheduledMessage) domain.ScheduledMessage {
	if m.ExecutedAt != nil {
		t := *m.ExecutedAt
		m.ExecutedAt = &t
	}
	return m
}
