// AngelaMos | 2026
// service_test.go

package property

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/visitpro/internal/company"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/invite"
	"github.com/carterperez-dev/visitpro/internal/middleware"
	"github.com/carterperez-dev/visitpro/internal/plan"
	"github.com/carterperez-dev/visitpro/internal/user"
)

const (
	tenantA = "11111111-1111-1111-1111-111111111111"
	tenantB = "22222222-2222-2222-2222-222222222222"
)

type member struct {
	propertyID string
	userID     string
	kind       identity.Role
}

type memRepo struct {
	mu         sync.Mutex
	properties map[string]*Property
	members    []member
	accounts   map[string]ClientAccount
}

func newMemRepo() *memRepo {
	return &memRepo{
		properties: map[string]*Property{},
		accounts:   map[string]ClientAccount{},
	}
}

func (m *memRepo) Create(_ context.Context, p *Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.properties[p.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.properties[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, fmt.Errorf("get property: %w", core.ErrNotFound)
}

func (m *memRepo) GetByShareToken(_ context.Context, token string) (*Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.properties {
		if p.ClientShareToken == token {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get property by share token: %w", core.ErrNotFound)
}

func (m *memRepo) ListByCompany(_ context.Context, companyID string) ([]Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Property{}
	for _, p := range m.properties {
		if p.CompanyID == companyID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memRepo) ListByMember(_ context.Context, userID string, kind identity.Role) ([]Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Property{}
	for _, mem := range m.members {
		if mem.userID == userID && mem.kind == kind {
			out = append(out, *m.properties[mem.propertyID])
		}
	}
	return out, nil
}

func (m *memRepo) IsMember(_ context.Context, propertyID, userID string, kind identity.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexOf(propertyID, userID, kind) >= 0, nil
}

func (m *memRepo) AddMember(_ context.Context, propertyID, userID string, kind identity.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(propertyID, userID, kind) < 0 {
		m.members = append(m.members, member{propertyID, userID, kind})
	}
	return nil
}

func (m *memRepo) RemoveMember(_ context.Context, propertyID, userID string, kind identity.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(propertyID, userID, kind)
	if i < 0 {
		return fmt.Errorf("remove member: %w", core.ErrNotFound)
	}
	m.members = append(m.members[:i], m.members[i+1:]...)
	return nil
}

func (m *memRepo) MemberIDs(_ context.Context, propertyID string, kind identity.Role) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []string{}
	for _, mem := range m.members {
		if mem.propertyID == propertyID && mem.kind == kind {
			ids = append(ids, mem.userID)
		}
	}
	return ids, nil
}

func (m *memRepo) ClientAccounts(_ context.Context, propertyIDs []string) ([]ClientAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []ClientAccount{}
	for _, mem := range m.members {
		if mem.kind != identity.RoleClient {
			continue
		}
		for _, id := range propertyIDs {
			if mem.propertyID == id {
				account := m.accounts[mem.userID]
				account.PropertyID = id
				account.ID = mem.userID
				out = append(out, account)
			}
		}
	}
	return out, nil
}

func (m *memRepo) indexOf(propertyID, userID string, kind identity.Role) int {
	for i, mem := range m.members {
		if mem.propertyID == propertyID && mem.userID == userID && mem.kind == kind {
			return i
		}
	}
	return -1
}

type passGuard struct {
	calls []plan.Resource
	err   error
}

func (g *passGuard) Guard(
	ctx context.Context,
	_ string,
	res plan.Resource,
	create func(ctx context.Context) error,
) error {
	g.calls = append(g.calls, res)
	if g.err != nil {
		return g.err
	}
	return create(ctx)
}

// fakeInviter attaches through the repo the way the real invite service does.
type fakeInviter struct {
	repo     *memRepo
	requests []invite.Request
	err      error
}

func (f *fakeInviter) Invite(ctx context.Context, req invite.Request) (*invite.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	id := "user-" + strings.ToLower(req.Email)
	if req.PropertyID != "" {
		_ = f.repo.AddMember(ctx, req.PropertyID, id, req.Role)
	}
	return &invite.Result{User: &user.User{ID: id, Email: req.Email}, Created: true, EmailSent: true}, nil
}

type fakeCompanies struct{}

func (fakeCompanies) GetByID(_ context.Context, id string) (*company.Company, error) {
	if id == tenantA {
		return &company.Company{ID: id, Name: "Blue Pools"}, nil
	}
	return nil, fmt.Errorf("get company: %w", core.ErrNotFound)
}

type fixture struct {
	svc     *Service
	repo    *memRepo
	guard   *passGuard
	inviter *fakeInviter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	f := &fixture{
		repo:    repo,
		guard:   &passGuard{},
		inviter: &fakeInviter{repo: repo},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(repo, f.guard, f.inviter, fakeCompanies{}, logger)
	return f
}

func (f *fixture) seed(id, companyID string) *Property {
	p := &Property{ID: id, CompanyID: companyID, Name: "Villa " + id, Address: "Calle 1", ClientShareToken: "tok-" + id}
	_ = f.repo.Create(context.Background(), p)
	return p
}

var (
	owner  = identity.NewPrincipal("owner-1", identity.RoleOwner, tenantA, "Olga", identity.AccessOwner)
	worker = identity.NewPrincipal("worker-1", identity.RoleWorker, tenantA, "Bo", identity.AccessMember)
	client = identity.NewPrincipal("client-1", identity.RoleClient, tenantA, "Ann", identity.AccessMember)
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.StatusCode
}

func TestAccessRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("p1", tenantA)
	f.seed("p2", tenantB)
	require.NoError(t, f.repo.AddMember(ctx, "p1", client.UserID, identity.RoleClient))

	_, err := f.svc.Access(ctx, owner, "p1")
	require.NoError(t, err)

	_, err = f.svc.Access(ctx, owner, "p2")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.svc.Access(ctx, owner, "missing")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.svc.Access(ctx, worker, "p1")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.svc.Access(ctx, client, "p1")
	require.NoError(t, err)

	asWorkerMembership := identity.NewPrincipal(client.UserID, identity.RoleWorker, tenantA, "", identity.AccessMember)
	_, err = f.svc.Access(ctx, asWorkerMembership, "p1")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestCreateRequiresNameAndAddress(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), owner, CreateRequest{Name: "  ", Address: "x"})

	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, f.guard.calls)
}

func TestCreateGeneratesUniqueShareTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, owner, CreateRequest{Name: "A", Address: "1"})
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, owner, CreateRequest{Name: "B", Address: "2"})
	require.NoError(t, err)

	assert.Len(t, a.ClientShareToken, 2*shareTokenBytes)
	assert.NotEqual(t, a.ClientShareToken, b.ClientShareToken)
	assert.Nil(t, a.InvitedClient)
	assert.Nil(t, a.InvitedClientError)
	assert.Equal(t, []plan.Resource{plan.Properties, plan.Properties}, f.guard.calls)
}

func TestCreateInvitesClient(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), owner, CreateRequest{
		Name:        "Villa Sol",
		Address:     "Calle 2",
		ClientEmail: " Ann@X.test ",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.InvitedClient)
	assert.Equal(t, "ann@x.test", resp.InvitedClient.Email)
	assert.True(t, resp.InvitedClient.EmailSent)
	require.Len(t, resp.AssignedClientAccounts, 1)
	assert.Equal(t, resp.InvitedClient.UserID, resp.AssignedClientAccounts[0].ID)

	req := f.inviter.requests[0]
	assert.Equal(t, identity.RoleClient, req.Role)
	assert.Equal(t, "Olga", req.InvitedByName)
	assert.Equal(t, resp.ID, req.PropertyID)
}

func TestCreateReportsInviteFailureWithoutFailing(t *testing.T) {
	f := newFixture(t)
	f.inviter.err = core.ConflictError("User belongs to a different company")

	resp, err := f.svc.Create(context.Background(), owner, CreateRequest{
		Name:        "Villa Sol",
		Address:     "Calle 2",
		ClientEmail: "ann@x.test",
	})
	require.NoError(t, err)

	assert.Nil(t, resp.InvitedClient)
	require.NotNil(t, resp.InvitedClientError)
	assert.Equal(t, "User belongs to a different company", *resp.InvitedClientError)

	all, err := f.repo.ListByCompany(context.Background(), tenantA)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateStopsAtPlanLimit(t *testing.T) {
	f := newFixture(t)
	f.guard.err = core.PaymentRequiredError("Property limit reached")

	_, err := f.svc.Create(context.Background(), owner, CreateRequest{Name: "A", Address: "1", ClientEmail: "a@x.test"})

	assert.Equal(t, http.StatusPaymentRequired, statusOf(t, err))
	assert.Empty(t, f.inviter.requests)
}

func TestInviteWorkerUsesCompanyName(t *testing.T) {
	f := newFixture(t)
	f.seed("p1", tenantA)
	anonymousOwner := identity.NewPrincipal("owner-1", identity.RoleOwner, tenantA, "", identity.AccessOwner)

	resp, err := f.svc.InviteWorker(context.Background(), anonymousOwner, "p1", InviteRequest{Email: "w@x.test"})
	require.NoError(t, err)

	assert.Equal(t, "worker", resp.Role)
	req := f.inviter.requests[0]
	assert.Equal(t, "Blue Pools", req.CompanyName)
	assert.Equal(t, "Blue Pools", req.InvitedByName)
	assert.Equal(t, identity.RoleWorker, req.Role)
}

func TestRemoveClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("p1", tenantA)
	require.NoError(t, f.repo.AddMember(ctx, "p1", client.UserID, identity.RoleClient))
	require.NoError(t, f.repo.AddMember(ctx, "p1", "client-2", identity.RoleClient))

	err := f.svc.RemoveClient(ctx, client, "p1", client.UserID)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	err = f.svc.RemoveClient(ctx, owner, "p1", "stranger")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	require.NoError(t, f.svc.RemoveClient(ctx, client, "p1", "client-2"))
	ids, err := f.svc.ClientIDs(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{client.UserID}, ids)
}

func TestListScopesByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed("p1", tenantA)
	f.seed("p2", tenantA)
	f.seed("p3", tenantB)
	require.NoError(t, f.repo.AddMember(ctx, "p2", client.UserID, identity.RoleClient))

	all, err := f.svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.List(ctx, client)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "p2", mine[0].ID)
	require.Len(t, mine[0].AssignedClientAccounts, 1)
	assert.Equal(t, client.UserID, mine[0].AssignedClientAccounts[0].ID)
}

func TestByShareToken(t *testing.T) {
	f := newFixture(t)
	f.seed("p1", tenantA)

	p, err := f.svc.ByShareToken(context.Background(), " tok-p1 ")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	_, err = f.svc.ByShareToken(context.Background(), "nope")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestCreateHandlerResponseShape(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	req := httptest.NewRequest(http.MethodPost, "/properties",
		strings.NewReader(`{"name":"Villa Sol","address":"Calle 2","clientEmail":"ann@x.test"}`))
	req.Header.Set("Content-Type", "application/json")
	p := owner
	req = req.WithContext(middleware.WithPrincipal(req.Context(), &p))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Villa Sol", body["name"])
	assert.NotEmpty(t, body["clientShareToken"])
	assert.Contains(t, body, "invitedClientError")
	assert.Nil(t, body["invitedClientError"])

	invited, ok := body["invitedClient"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, invited["emailSent"])
}

func TestHandlersRejectMalformedBodies(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.svc)

	send := func(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/properties", strings.NewReader(body))
		p := owner
		req = req.WithContext(middleware.WithPrincipal(req.Context(), &p))
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}
	errorOf := func(rec *httptest.ResponseRecorder) string {
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		msg, _ := body["error"].(string)
		return msg
	}

	rec := send(h.Create, `{"name":"Villa Sol","address":"Calle 2","clientEmail":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "clientEmail must be a valid email", errorOf(rec))

	rec = send(h.Create, `{"name":"`+strings.Repeat("v", 201)+`","address":"Calle 2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name must be at most 200 characters", errorOf(rec))

	rec = send(h.Create, `{"name":"","address":"Calle 2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name and address are required", errorOf(rec))

	rec = send(h.InviteWorker, `{"email":"bo@"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email", errorOf(rec))

	rec = send(h.InviteClient, `{"email":"ann@x.test","password":"`+strings.Repeat("p", 129)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password must be at most 128 characters", errorOf(rec))

	assert.Empty(t, f.repo.properties)
	assert.Empty(t, f.inviter.requests)
}
