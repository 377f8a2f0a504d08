// AngelaMos | 2026
// service.go

package visit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/visitpro/internal/catalog"
	"github.com/carterperez-dev/visitpro/internal/core"
	"github.com/carterperez-dev/visitpro/internal/identity"
	"github.com/carterperez-dev/visitpro/internal/mailer"
	"github.com/carterperez-dev/visitpro/internal/property"
	"github.com/carterperez-dev/visitpro/internal/push"
	"github.com/carterperez-dev/visitpro/internal/user"
)

type PropertyAccess interface {
	Access(ctx context.Context, p identity.Principal, id string) (*property.Property, error)
	ClientIDs(ctx context.Context, propertyID string) ([]string, error)
	ByShareToken(ctx context.Context, token string) (*property.Property, error)
}

type Recipients interface {
	GetByIDs(ctx context.Context, ids []string) ([]user.User, error)
	PrunePushTokens(ctx context.Context, ids, tokens []string) error
}

type ReportMailer interface {
	SendVisitReport(ctx context.Context, in mailer.VisitReport) error
}

type PushSender interface {
	Send(ctx context.Context, tokens []string, payload push.Payload) (push.Result, error)
}

type Service struct {
	repo       Repository
	properties PropertyAccess
	recipients Recipients
	mail       ReportMailer
	push       PushSender
	logger     *slog.Logger
	now        func() time.Time
}

// NewService accepts nil mail and push senders when those integrations are
// not configured.
func NewService(
	repo Repository,
	properties PropertyAccess,
	recipients Recipients,
	mail ReportMailer,
	pushSender PushSender,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:       repo,
		properties: properties,
		recipients: recipients,
		mail:       mail,
		push:       pushSender,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Create(
	ctx context.Context,
	p identity.Principal,
	propertyID string,
	req CreateRequest,
) (*CreateResponse, error) {
	ctx, span := core.StartSpan(ctx, "visit.create", core.AttrPropertyID.String(propertyID))
	defer span.End()

	prop, err := s.properties.Access(ctx, p, propertyID)
	if err != nil {
		return nil, err
	}
	if !p.HasCompany() {
		return nil, core.UnauthorizedError("Unauthorized")
	}

	serviceType := strings.TrimSpace(req.ServiceType)
	if !catalog.ValidServiceType(serviceType) {
		return nil, core.BadRequestError("Valid serviceType is required")
	}

	workerName := req.WorkerName
	if workerName == "" {
		workerName = p.Name
	}
	if workerName == "" {
		workerName = "Worker"
	}

	now := s.now()
	photos := make(Photos, 0, len(req.Photos))
	for _, in := range req.Photos {
		photos = append(photos, Photo{
			URL:          in.URL,
			ThumbnailURL: in.ThumbnailURL,
			CreatedAt:    parsePhotoTime(in.CreatedAt, now),
		})
	}

	v := &Visit{
		ID:               uuid.New().String(),
		CompanyID:        p.CompanyID,
		PropertyID:       prop.ID,
		CreatedByUserID:  p.UserID,
		WorkerName:       workerName,
		Note:             req.Note,
		ServiceType:      serviceType,
		ServiceChecklist: catalog.FilterChecklist(serviceType, req.ServiceChecklist),
		Photos:           photos,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info("visit created",
		"visit_id", v.ID,
		"property_id", prop.ID,
		"service_type", serviceType,
	)

	resp := &CreateResponse{}

	clients, err := s.clientsOf(ctx, prop.ID)
	if err != nil {
		s.logger.Error("load visit recipients failed", "property_id", prop.ID, "error", err)
	}

	if req.SendEmailUpdate {
		resp.EmailSent = s.sendReport(ctx, prop, v, clients)
	}
	resp.PushSentCount, resp.PushFailedCount = s.notifyClients(ctx, prop, v, clients)

	stored, err := s.repo.GetByID(ctx, prop.ID, v.ID)
	if err != nil {
		return nil, err
	}
	resp.Response = ToResponse(stored, nil, p.UserID)

	return resp, nil
}

func (s *Service) List(
	ctx context.Context,
	p identity.Principal,
	propertyID string,
) ([]Response, error) {
	prop, err := s.properties.Access(ctx, p, propertyID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, prop.ID, p.UserID)
}

// Shared lists a property's visits for anonymous share-link viewers.
func (s *Service) Shared(ctx context.Context, token string) ([]Response, error) {
	prop, err := s.properties.ByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, prop.ID, "")
}

// React toggles the caller's reaction: the same emoji removes it, a
// different one replaces it.
func (s *Service) React(
	ctx context.Context,
	p identity.Principal,
	propertyID, visitID, emoji string,
) (*Response, error) {
	prop, err := s.properties.Access(ctx, p, propertyID)
	if err != nil {
		return nil, err
	}

	emoji = strings.TrimSpace(emoji)
	if !catalog.ValidEmoji(emoji) {
		return nil, core.BadRequestError("Valid emoji is required")
	}

	v, err := s.repo.GetByID(ctx, prop.ID, visitID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError("Visit not found")
		}
		return nil, err
	}

	current, err := s.repo.ReactionOf(ctx, v.ID, p.UserID)
	if err != nil {
		return nil, err
	}

	if current == emoji {
		err = s.repo.DeleteReaction(ctx, v.ID, p.UserID)
	} else {
		err = s.repo.SetReaction(ctx, v.ID, p.UserID, emoji)
	}
	if err != nil {
		return nil, err
	}

	reactions, err := s.repo.Reactions(ctx, []string{v.ID})
	if err != nil {
		return nil, err
	}

	resp := ToResponse(v, reactions, p.UserID)
	return &resp, nil
}

func (s *Service) list(ctx context.Context, propertyID, viewerID string) ([]Response, error) {
	visits, err := s.repo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(visits))
	for i := range visits {
		ids[i] = visits[i].ID
	}

	reactions, err := s.repo.Reactions(ctx, ids)
	if err != nil {
		return nil, err
	}

	byVisit := make(map[string][]Reaction, len(visits))
	for _, r := range reactions {
		byVisit[r.VisitID] = append(byVisit[r.VisitID], r)
	}

	out := make([]Response, 0, len(visits))
	for i := range visits {
		out = append(out, ToResponse(&visits[i], byVisit[visits[i].ID], viewerID))
	}
	return out, nil
}

func (s *Service) clientsOf(ctx context.Context, propertyID string) ([]user.User, error) {
	if s.mail == nil && s.push == nil {
		return nil, nil
	}

	ids, err := s.properties.ClientIDs(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list property clients: %w", err)
	}
	return s.recipients.GetByIDs(ctx, ids)
}

func (s *Service) sendReport(
	ctx context.Context,
	prop *property.Property,
	v *Visit,
	clients []user.User,
) bool {
	if s.mail == nil {
		return false
	}

	emails := make([]string, 0, len(clients))
	for _, c := range clients {
		if e := strings.TrimSpace(c.Email); e != "" {
			emails = append(emails, e)
		}
	}
	if len(emails) == 0 {
		return false
	}

	labels := make([]string, 0, len(v.ServiceChecklist))
	for _, item := range v.ServiceChecklist {
		labels = append(labels, catalog.ChecklistLabel(item))
	}
	urls := make([]string, 0, len(v.Photos))
	for _, photo := range v.Photos {
		if u := strings.TrimSpace(photo.URL); u != "" {
			urls = append(urls, u)
		}
	}

	if err := s.mail.SendVisitReport(ctx, mailer.VisitReport{
		ToEmails:       emails,
		PropertyName:   prop.Name,
		WorkerName:     v.WorkerName,
		Note:           v.Note,
		CreatedAt:      v.CreatedAt,
		ServiceLabel:   catalog.ServiceLabel(v.ServiceType),
		ChecklistItems: labels,
		PhotoURLs:      urls,
	}); err != nil {
		s.logger.Warn("visit report email failed", "visit_id", v.ID, "error", err)
		return false
	}

	return true
}

// notifyClients pushes the visit to every client device and prunes tokens
// the provider reports as dead. Failures never fail the visit.
func (s *Service) notifyClients(
	ctx context.Context,
	prop *property.Property,
	v *Visit,
	clients []user.User,
) (int, int) {
	if s.push == nil {
		return 0, 0
	}

	var (
		tokens []string
		ids    []string
	)
	for i := range clients {
		ids = append(ids, clients[i].ID)
		tokens = append(tokens, clients[i].ActivePushTokens()...)
	}
	if len(tokens) == 0 {
		return 0, 0
	}

	result, err := s.push.Send(ctx, tokens, push.Payload{
		Title: "New visit at " + prop.Name,
		Body:  fmt.Sprintf("%s submitted a %s update.", v.WorkerName, catalog.ServiceLabel(v.ServiceType)),
		Data: map[string]string{
			"type":       "visit_created",
			"propertyId": prop.ID,
			"visitId":    v.ID,
		},
	})
	if err != nil {
		s.logger.Warn("visit push failed", "visit_id", v.ID, "error", err)
		return 0, 0
	}

	if len(result.InvalidTokens) > 0 {
		if err := s.recipients.PrunePushTokens(ctx, ids, result.InvalidTokens); err != nil {
			s.logger.Warn("prune push tokens failed", "visit_id", v.ID, "error", err)
		}
	}

	return result.SentCount, result.FailedCount
}

// photoTimeLayouts are tried in order. Values without a zone are UTC.
var photoTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

func parsePhotoTime(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range photoTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return fallback
}
