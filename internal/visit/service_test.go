// AngelaMos | 2026
// service_test.go

package visit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/mailer"
	"github.com/carterperez-dev/visitpro/internal/property"
	"github.com/carterperez-dev/visitpro/internal/push"
	"github.com/carterperez-dev/visitpro/internal/user"
)

const (
	tenant     = "11111111-1111-1111-1111-111111111111"
	propertyID = "33333333-3333-3333-3333-333333333333"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type memRepo struct {
	visits    map[string]*Visit
	reactions []Reaction
	names     map[string]string
	created   int
}

func newMemRepo() *memRepo {
	return &memRepo{visits: map[string]*Visit{}, names: map[string]string{}}
}

func (m *memRepo) Create(_ context.Context, v *Visit) error {
	m.created++
	v.CreatedAt = base.Add(time.Duration(m.created) * time.Minute)
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, propertyID, visitID string) (*Visit, error) {
	if v, ok := m.visits[visitID]; ok && v.PropertyID == propertyID {
		cp := *v
		return &cp, nil
	}
	return nil, fmt.Errorf("get visit: %w", core.ErrNotFound)
}

func (m *memRepo) ListByProperty(_ context.Context, propertyID string) ([]Visit, error) {
	out := []Visit{}
	for _, v := range m.visits {
		if v.PropertyID == propertyID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) Reactions(_ context.Context, visitIDs []string) ([]Reaction, error) {
	out := []Reaction{}
	for _, r := range m.reactions {
		for _, id := range visitIDs {
			if r.VisitID == id {
				r.Name = m.names[r.UserID]
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (m *memRepo) ReactionOf(_ context.Context, visitID, userID string) (string, error) {
	for _, r := range m.reactions {
		if r.VisitID == visitID && r.UserID == userID {
			return r.Emoji, nil
		}
	}
	return "", nil
}

func (m *memRepo) SetReaction(_ context.Context, visitID, userID, emoji string) error {
	for i := range m.reactions {
		if m.reactions[i].VisitID == visitID && m.reactions[i].UserID == userID {
			m.reactions[i].Emoji = emoji
			return nil
		}
	}
	m.reactions = append(m.reactions, Reaction{VisitID: visitID, UserID: userID, Emoji: emoji})
	return nil
}

func (m *memRepo) DeleteReaction(_ context.Context, visitID, userID string) error {
	for i := range m.reactions {
		if m.reactions[i].VisitID == visitID && m.reactions[i].UserID == userID {
			m.reactions = append(m.reactions[:i], m.reactions[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeProperties struct {
	prop    *property.Property
	clients []string
	denied  bool
}

func (f *fakeProperties) Access(_ context.Context, _ identity.Principal, id string) (*property.Property, error) {
	if id != f.prop.ID {
		return nil, core.NotFoundError("Property not found")
	}
	if f.denied {
		return nil, core.ForbiddenError("Forbidden")
	}
	return f.prop, nil
}

func (f *fakeProperties) ClientIDs(context.Context, string) ([]string, error) {
	return f.clients, nil
}

func (f *fakeProperties) ByShareToken(_ context.Context, token string) (*property.Property, error) {
	if token == f.prop.ClientShareToken {
		return f.prop, nil
	}
	return nil, core.NotFoundError("Share token not found")
}

type fakeRecipients struct {
	users  map[string]user.User
	pruned []string
}

func (f *fakeRecipients) GetByIDs(_ context.Context, ids []string) ([]user.User, error) {
	out := []user.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRecipients) PrunePushTokens(_ context.Context, _, tokens []string) error {
	f.pruned = append(f.pruned, tokens...)
	return nil
}

type fakeMail struct {
	reports []mailer.VisitReport
	err     error
}

func (f *fakeMail) SendVisitReport(_ context.Context, in mailer.VisitReport) error {
	f.reports = append(f.reports, in)
	return f.err
}

type fakePush struct {
	tokens  []string
	payload push.Payload
	result  push.Result
}

func (f *fakePush) Send(_ context.Context, tokens []string, payload push.Payload) (push.Result, error) {
	f.tokens = tokens
	f.payload = payload
	return f.result, nil
}

type fixture struct {
	svc        *Service
	repo       *memRepo
	props      *fakeProperties
	recipients *fakeRecipients
	mail       *fakeMail
	push       *fakePush
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: newMemRepo(),
		props: &fakeProperties{
			prop:    &property.Property{ID: propertyID, CompanyID: tenant, Name: "Villa Sol", ClientShareToken: "share-1"},
			clients: []string{"client-1", "client-2"},
		},
		recipients: &fakeRecipients{users: map[string]user.User{
			"client-1": {ID: "client-1", Email: "ann@x.test", PushTokens: pq.StringArray{"tok-a", "tok-dead"}},
			"client-2": {ID: "client-2", Email: "bob@x.test"},
		}},
		mail: &fakeMail{},
		push: &fakePush{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.repo, f.props, f.recipients, f.mail, f.push, logger)
	f.svc.now = func() time.Time { return base }
	return f
}

var (
	worker = identity.NewPrincipal("worker-1", identity.RoleWorker, tenant, "Bo", identity.AccessMember)
	client = identity.NewPrincipal("client-1", identity.RoleClient, tenant, "Ann", identity.AccessMember)
)

func statusOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := core.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.StatusCode
}

func (f *fixture) createVisit(t *testing.T, serviceType string) *CreateResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), worker, propertyID, CreateRequest{ServiceType: serviceType})
	require.NoError(t, err)
	return resp
}

func TestCreateRejectsUnknownServiceType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), worker, propertyID, CreateRequest{ServiceType: "spa"})

	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Empty(t, f.repo.visits)
}

func TestCreateFiltersChecklistAndDefaultsPhotoTime(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Create(context.Background(), worker, propertyID, CreateRequest{
		ServiceType:      "pool_cleaning",
		ServiceChecklist: []string{"pool_vacuumed", "garden_mowed", "pool_vacuumed"},
		Photos: []PhotoInput{
			{URL: "https://img/1", CreatedAt: "2026-02-28T18:30:00Z"},
			{URL: "https://img/2", ThumbnailURL: "https://img/2/thumb", CreatedAt: "yesterday"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"pool_vacuumed"}, resp.ServiceChecklist)
	assert.Equal(t, "Bo", resp.WorkerName)
	require.Len(t, resp.Photos, 2)
	assert.Equal(t, "2026-02-28T18:30:00.000Z", resp.Photos[0].CreatedAt)
	assert.Nil(t, resp.Photos[0].ThumbnailURL)
	assert.Equal(t, "2026-03-01T09:00:00.000Z", resp.Photos[1].CreatedAt)
	require.NotNil(t, resp.Photos[1].ThumbnailURL)
}

func TestCreateFansOutEmailAndPush(t *testing.T) {
	f := newFixture(t)
	f.push.result = push.Result{SentCount: 1, FailedCount: 1, InvalidTokens: []string{"tok-dead"}}

	resp, err := f.svc.Create(context.Background(), worker, propertyID, CreateRequest{
		ServiceType:      "garden_service",
		ServiceChecklist: []string{"garden_mowed"},
		WorkerName:       "Bo Jensen",
		SendEmailUpdate:  true,
	})
	require.NoError(t, err)

	assert.True(t, resp.EmailSent)
	assert.Equal(t, 1, resp.PushSentCount)
	assert.Equal(t, 1, resp.PushFailedCount)

	require.Len(t, f.mail.reports, 1)
	report := f.mail.reports[0]
	assert.Equal(t, []string{"ann@x.test", "bob@x.test"}, report.ToEmails)
	assert.Equal(t, "Garden service", report.ServiceLabel)
	assert.Equal(t, []string{"Garden mowed"}, report.ChecklistItems)

	assert.Equal(t, []string{"tok-a", "tok-dead"}, f.push.tokens)
	assert.Equal(t, "New visit at Villa Sol", f.push.payload.Title)
	assert.Equal(t, "Bo Jensen submitted a Garden service update.", f.push.payload.Body)
	assert.Equal(t, "visit_created", f.push.payload.Data["type"])
	assert.Equal(t, resp.ID, f.push.payload.Data["visitId"])
	assert.Equal(t, []string{"tok-dead"}, f.recipients.pruned)
}

func TestCreateEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")

	resp, err := f.svc.Create(context.Background(), worker, propertyID, CreateRequest{
		ServiceType:     "other",
		SendEmailUpdate: true,
	})
	require.NoError(t, err)
	assert.False(t, resp.EmailSent)
}

func TestCreateWithoutIntegrations(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.props, f.recipients, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp, err := svc.Create(context.Background(), worker, propertyID, CreateRequest{
		ServiceType:     "other",
		SendEmailUpdate: true,
	})
	require.NoError(t, err)
	assert.False(t, resp.EmailSent)
	assert.Zero(t, resp.PushSentCount)
}

func TestReactionToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.createVisit(t, "other")

	resp, err := f.svc.React(ctx, client, propertyID, v.ID, "👍")
	require.NoError(t, err)
	require.NotNil(t, resp.UserReaction)
	assert.Equal(t, "👍", *resp.UserReaction)

	resp, err = f.svc.React(ctx, client, propertyID, v.ID, "👍")
	require.NoError(t, err)
	assert.Nil(t, resp.UserReaction)
	assert.Empty(t, resp.ReactionCounts)

	_, err = f.svc.React(ctx, client, propertyID, v.ID, "👍")
	require.NoError(t, err)
	resp, err = f.svc.React(ctx, client, propertyID, v.ID, "🔥")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"🔥": 1}, resp.ReactionCounts)
	assert.Equal(t, "🔥", *resp.UserReaction)
	assert.Len(t, f.repo.reactions, 1)
}

func TestReactionValidation(t *testing.T) {
	f := newFixture(t)
	v := f.createVisit(t, "other")

	_, err := f.svc.React(context.Background(), client, propertyID, v.ID, "💩")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.svc.React(context.Background(), client, propertyID, "missing", "👍")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	f.props.denied = true
	_, err = f.svc.React(context.Background(), client, propertyID, v.ID, "👍")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestSharedListingMatchesAuthenticatedListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createVisit(t, "pool_cleaning")
	second := f.createVisit(t, "handyman")
	_, err := f.svc.React(ctx, client, propertyID, first.ID, "❤️")
	require.NoError(t, err)

	authed, err := f.svc.List(ctx, client, propertyID)
	require.NoError(t, err)
	shared, err := f.svc.Shared(ctx, "share-1")
	require.NoError(t, err)

	require.Len(t, authed, 2)
	assert.Equal(t, second.ID, authed[0].ID)
	assert.Equal(t, first.ID, authed[1].ID)
	require.NotNil(t, authed[1].UserReaction)

	require.Len(t, shared, 2)
	for i := range shared {
		assert.Equal(t, authed[i].ID, shared[i].ID)
		assert.Equal(t, authed[i].ReactionCounts, shared[i].ReactionCounts)
		assert.Nil(t, shared[i].UserReaction)
	}

	_, err = f.svc.Shared(ctx, "nope")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestToResponseReactionDetails(t *testing.T) {
	bob := "Bobby"
	blank := "  "
	v := &Visit{ID: "v1", PropertyID: "p1", CreatedAt: base}
	reactions := []Reaction{
		{UserID: "u1", Emoji: "🔥", Name: "Ann"},
		{UserID: "u2", Emoji: "👍", Name: "Bob", Username: &bob},
		{UserID: "u3", Emoji: "🔥", Username: &blank},
		{UserID: "u4", Emoji: "🙃", Name: "Ignored"},
	}

	resp := ToResponse(v, reactions, "u2")

	assert.Equal(t, map[string]int{"🔥": 2, "👍": 1}, resp.ReactionCounts)
	assert.Equal(t, []ReactionDetail{
		{Emoji: "🔥", Names: []string{"Ann", "Client"}},
		{Emoji: "👍", Names: []string{"Bobby"}},
	}, resp.ReactionDetails)
	require.NotNil(t, resp.UserReaction)
	assert.Equal(t, "👍", *resp.UserReaction)
	assert.Equal(t, []string{}, resp.ServiceChecklist)
	assert.Nil(t, resp.WorkerAvatarURL)
}

func TestPhotosScan(t *testing.T) {
	var p Photos
	require.NoError(t, p.Scan([]byte(`[{"url":"https://img/1","createdAt":"2026-03-01T09:00:00Z"}]`)))
	require.Len(t, p, 1)
	assert.Equal(t, "https://img/1", p[0].URL)

	require.NoError(t, p.Scan(nil))
	assert.Empty(t, p)

	assert.Error(t, p.Scan(42))
}

func TestParsePhotoTimeAcceptsCommonLayouts(t *testing.T) {
	fallback := base

	cases := map[string]time.Time{
		"2026-02-28T18:30:00Z":          time.Date(2026, 2, 28, 18, 30, 0, 0, time.UTC),
		"2026-02-28T18:30:00.250+01:00": time.Date(2026, 2, 28, 17, 30, 0, 250_000_000, time.UTC),
		"2026-02-28T18:30:00":           time.Date(2026, 2, 28, 18, 30, 0, 0, time.UTC),
		"2026-02-28T18:30:00.5":         time.Date(2026, 2, 28, 18, 30, 0, 500_000_000, time.UTC),
		"2026-02-28 18:30:00":           time.Date(2026, 2, 28, 18, 30, 0, 0, time.UTC),
		" 2026-02-28 ":                  time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		"":                              fallback,
		"yesterday":                     fallback,
		"28/02/2026":                    fallback,
	}
	for in, want := range cases {
		assert.True(t, want.Equal(parsePhotoTime(in, fallback)), in)
	}
}
