package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

// MemoryStore is a process-local Store backing the service and API tests.
type MemoryStore struct {
	mu           sync.Mutex
	messages     []model.Message
	sessions     map[string]model.Session
	integrations map[string]model.Integration
	residents    map[string]model.Resident
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:     map[string]model.Session{},
		integrations: map[string]model.Integration{},
		residents:    map[string]model.Resident{},
	}
}

// AddResident seeds a resident row; residents are managed outside this service.
func (s *MemoryStore) AddResident(r model.Resident) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.residents[r.ID] = r
}

// Messages returns a copy of every stored row in insertion order.
func (s *MemoryStore) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages...)
}

func (s *MemoryStore) InsertMessage(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *MemoryStore) HasOutboundSince(_ context.Context, tenantID, residentID string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.TenantID == tenantID && m.ResidentID == residentID &&
			m.Direction == model.Outbound && !m.Timestamp.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListThread(_ context.Context, tenantID, residentID string, limit, offset int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	var thread []model.Message
	for _, m := range s.messages {
		if m.TenantID == tenantID && m.ResidentID == residentID {
			thread = append(thread, m)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(thread, func(i, j int) bool { return thread[i].Timestamp.Before(thread[j].Timestamp) })
	if offset >= len(thread) {
		return []model.Message{}, nil
	}
	end := offset + limit
	if end > len(thread) {
		end = len(thread)
	}
	return thread[offset:end], nil
}

func (s *MemoryStore) ListConversations(_ context.Context, tenantID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	latest := map[string]model.Message{}
	for _, m := range s.messages {
		if m.TenantID != tenantID {
			continue
		}
		if cur, ok := latest[m.ResidentID]; !ok || !m.Timestamp.Before(cur.Timestamp) {
			latest[m.ResidentID] = m
		}
	}
	s.mu.Unlock()

	out := make([]model.Message, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sessionKey(tenantID, residentID string) string {
	return tenantID + "/" + residentID
}

func (s *MemoryStore) GetSession(_ context.Context, tenantID, residentID string) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionKey(tenantID, residentID)]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) InsertSession(_ context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = sess.UpdatedAt
	}
	s.sessions[sessionKey(sess.TenantID, sess.ResidentID)] = *sess
	return nil
}

func (s *MemoryStore) TouchSession(_ context.Context, id string, lastMessageAt, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, sess := range s.sessions {
		if sess.ID != id {
			continue
		}
		sess.LastMessageAt = lastMessageAt
		sess.State = model.SessionOpen
		sess.UpdatedAt = updatedAt
		s.sessions[k] = sess
		return nil
	}
	return ErrNotFound
}

func (s *MemoryStore) GetIntegration(_ context.Context, tenantID string) (model.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.integrations[tenantID]
	if !ok {
		return model.Integration{}, ErrNotFound
	}
	return in, nil
}

func (s *MemoryStore) ListIntegrations(_ context.Context, provider model.Provider) ([]model.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Integration
	for _, in := range s.integrations {
		if in.Provider == provider {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out, nil
}

func (s *MemoryStore) SaveIntegration(_ context.Context, in *model.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.integrations[in.TenantID]; ok {
		in.ID = cur.ID
		in.CreatedAt = cur.CreatedAt
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = in.UpdatedAt
	}
	s.integrations[in.TenantID] = *in
	return nil
}

func (s *MemoryStore) SetIntegrationStatus(_ context.Context, tenantID string, status model.IntegrationStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.integrations[tenantID]
	if !ok {
		return nil
	}
	in.Status = status
	in.UpdatedAt = at
	s.integrations[tenantID] = in
	return nil
}

func (s *MemoryStore) SetInstanceStatus(_ context.Context, instanceID string, status model.IntegrationStatus, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, in := range s.integrations {
		if in.ZAPIInstanceID != instanceID {
			continue
		}
		in.Status = status
		in.UpdatedAt = at
		s.integrations[k] = in
		n++
	}
	return n, nil
}

func (s *MemoryStore) GetResident(_ context.Context, id string) (model.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.residents[id]
	if !ok {
		return model.Resident{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) FindResidentByPhone(_ context.Context, localPhone string) (model.Resident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *model.Resident
	for _, r := range s.residents {
		if r.Phone != localPhone {
			continue
		}
		if found == nil || r.ID < found.ID {
			r := r
			found = &r
		}
	}
	if found == nil {
		return model.Resident{}, ErrNotFound
	}
	return *found, nil
}
