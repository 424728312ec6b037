package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LeventeLantos/condo-messaging/internal/cache"
	"github.com/LeventeLantos/condo-messaging/internal/client"
	"github.com/LeventeLantos/condo-messaging/internal/model"
	"github.com/LeventeLantos/condo-messaging/internal/repo"
	"github.com/LeventeLantos/condo-messaging/internal/service"
)

var fixedNow = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type sendCall struct {
	InstanceID string
	Phone      string
	Message    string
}

type fakeProvider struct {
	mu sync.Mutex

	sendResp client.Response
	sendErr  error
	sends    []sendCall

	logoutResp client.Response
	logoutErr  error
	logouts    []string

	statusResp map[string]client.Response
	statusErr  error
}

func okResponse(messageID string) client.Response {
	body := map[string]any{"zaapId": "z-" + messageID}
	if messageID != "" {
		body["messageId"] = messageID
	}
	return client.Response{StatusCode: 200, Body: body, MessageID: messageID}
}

func (f *fakeProvider) SendText(_ context.Context, instanceID, phone, message string) (client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return client.Response{}, f.sendErr
	}
	f.sends = append(f.sends, sendCall{InstanceID: instanceID, Phone: phone, Message: message})
	return f.sendResp, nil
}

func (f *fakeProvider) Logout(_ context.Context, instanceID string) (client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logoutErr != nil {
		return client.Response{}, f.logoutErr
	}
	f.logouts = append(f.logouts, instanceID)
	return f.logoutResp, nil
}

func (f *fakeProvider) Status(_ context.Context, instanceID string) (client.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return client.Response{}, f.statusErr
	}
	return f.statusResp[instanceID], nil
}

func (f *fakeProvider) Sends() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.sends...)
}

type published struct {
	RoutingKey string
	TenantID   string
	Payload    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey, tenantID string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{RoutingKey: routingKey, TenantID: tenantID, Payload: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.RoutingKey)
	}
	return out
}

// brokenStore fails the operations named in failing.
type brokenStore struct {
	*repo.MemoryStore
	failing map[string]bool
}

var errBroken = errors.New("store unavailable")

func (s *brokenStore) HasOutboundSince(ctx context.Context, tenantID, residentID string, since time.Time) (bool, error) {
	if s.failing["HasOutboundSince"] {
		return false, errBroken
	}
	return s.MemoryStore.HasOutboundSince(ctx, tenantID, residentID, since)
}

func (s *brokenStore) GetResident(ctx context.Context, id string) (model.Resident, error) {
	if s.failing["GetResident"] {
		return model.Resident{}, errBroken
	}
	return s.MemoryStore.GetResident(ctx, id)
}

func (s *brokenStore) InsertMessage(ctx context.Context, m *model.Message) error {
	if s.failing["InsertMessage"] {
		return errBroken
	}
	return s.MemoryStore.InsertMessage(ctx, m)
}

func (s *brokenStore) SetInstanceStatus(ctx context.Context, instanceID string, status model.IntegrationStatus, at time.Time) (int64, error) {
	if s.failing["SetInstanceStatus"] {
		return 0, errBroken
	}
	return s.MemoryStore.SetInstanceStatus(ctx, instanceID, status, at)
}

func (s *brokenStore) GetIntegration(ctx context.Context, tenantID string) (model.Integration, error) {
	if s.failing["GetIntegration"] {
		return model.Integration{}, errBroken
	}
	return s.MemoryStore.GetIntegration(ctx, tenantID)
}

func (s *brokenStore) GetSession(ctx context.Context, tenantID, residentID string) (model.Session, error) {
	if s.failing["GetSession"] {
		return model.Session{}, errBroken
	}
	return s.MemoryStore.GetSession(ctx, tenantID, residentID)
}

type fixture struct {
	store    *repo.MemoryStore
	provider *fakeProvider
	cache    *cache.MemoryCache
	events   *recordingPublisher
	deps     service.Deps
}

const (
	tenantID   = "t1"
	residentID = "r1"
	instanceID = "inst-1"
	localPhone = "11988887777"
)

// newFixture seeds one resident and an active Z-API integration for t1.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repo.NewMemoryStore()
	store.AddResident(model.Resident{ID: residentID, TenantID: tenantID, Name: "Ana", Phone: localPhone})
	require.NoError(t, store.SaveIntegration(context.Background(), &model.Integration{
		TenantID:       tenantID,
		Provider:       model.ProviderZAPI,
		ZAPIInstanceID: instanceID,
		Status:         model.StatusActive,
		UpdatedAt:      fixedNow.Add(-time.Hour),
	}))

	f := &fixture{
		store:    store,
		provider: &fakeProvider{sendResp: okResponse("pm-1"), logoutResp: client.Response{StatusCode: 200, Body: map[string]any{"value": true}}},
		cache:    cache.NewMemoryCache(time.Hour),
		events:   &recordingPublisher{},
	}
	f.deps = service.Deps{
		Store:         store,
		Provider:      f.provider,
		Cache:         f.cache,
		Events:        f.events,
		ProviderToken: "tok",
		Now:           clock,
	}
	return f
}

func (f *fixture) messages(direction model.Direction) []model.Message {
	var out []model.Message
	for _, m := range f.store.Messages() {
		if m.Direction == direction {
			out = append(out, m)
		}
	}
	return out
}

func requireKind(t *testing.T, err error, want service.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, service.KindOf(err), "error: %v", err)
}
