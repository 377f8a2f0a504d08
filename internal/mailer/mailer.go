// AngelaMos | 2026
// mailer.go

package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/carterperez-dev/visitpro/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const reportTimeLayout = "02 Jan 2006 15:04 MST"

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Brand struct {
	Name    string
	AppURL  string
	LogoURL string
}

type ClientInvite struct {
	ToEmail           string
	ClientName        string
	PropertyName      string
	InvitedByName     string
	TemporaryPassword string
}

type WorkerInvite struct {
	ToEmail           string
	WorkerName        string
	CompanyName       string
	InvitedByName     string
	TemporaryPassword string
}

type VisitReport struct {
	ToEmails       []string
	PropertyName   string
	WorkerName     string
	Note           string
	CreatedAt      time.Time
	ServiceLabel   string
	ChecklistItems []string
	PhotoURLs      []string
}

type credentials struct {
	Email             string
	TemporaryPassword string
}

type page struct {
	Brand       Brand
	Title       string
	Preheader   string
	Credentials credentials
	Data        any
}

type Mailer struct {
	sender    Sender
	brand     Brand
	templates map[string]*template.Template
}

// New returns nil when SMTP is not configured.
func New(cfg config.MailConfig, app config.AppConfig) (*Mailer, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	return NewWithSender(newSMTPSender(cfg), brandFrom(cfg, app))
}

func NewWithSender(sender Sender, brand Brand) (*Mailer, error) {
	m := &Mailer{
		sender:    sender,
		brand:     brand,
		templates: make(map[string]*template.Template, 3),
	}

	for _, name := range []string{"client_invite", "worker_invite", "visit_report"} {
		tmpl, err := template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/credentials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		m.templates[name] = tmpl
	}

	return m, nil
}

func brandFrom(cfg config.MailConfig, app config.AppConfig) Brand {
	name := strings.TrimSpace(app.BrandName)
	if name == "" {
		name = strings.TrimSpace(cfg.FromName)
	}
	if name == "" {
		name = "visitpro"
	}
	return Brand{Name: name, AppURL: app.PublicURL, LogoURL: app.LogoURL}
}

func (m *Mailer) SendClientInvite(ctx context.Context, in ClientInvite) error {
	html, err := m.render("client_invite", page{
		Title:       "You're invited to " + in.PropertyName,
		Preheader:   in.InvitedByName + " invited you to view updates for your property " + in.PropertyName,
		Credentials: credentials{Email: in.ToEmail, TemporaryPassword: in.TemporaryPassword},
		Data:        in,
	})
	if err != nil {
		return err
	}

	text := strings.Join([]string{
		"Hi " + in.ClientName + ",",
		"",
		fmt.Sprintf("%s invited you to view service updates for your property %q.",
			in.InvitedByName, in.PropertyName),
		"",
		loginHint(in.ToEmail, in.TemporaryPassword),
		"",
		"Open app: " + m.brand.AppURL,
	}, "\n")

	return m.sender.Send(ctx, Message{
		To:      []string{in.ToEmail},
		Subject: fmt.Sprintf("You were invited to %s on %s", in.PropertyName, m.brand.Name),
		Text:    text,
		HTML:    html,
	})
}

func (m *Mailer) SendWorkerInvite(ctx context.Context, in WorkerInvite) error {
	html, err := m.render("worker_invite", page{
		Title:       "You were invited to " + in.CompanyName,
		Preheader:   in.InvitedByName + " invited you to " + in.CompanyName,
		Credentials: credentials{Email: in.ToEmail, TemporaryPassword: in.TemporaryPassword},
		Data:        in,
	})
	if err != nil {
		return err
	}

	text := strings.Join([]string{
		"Hi " + in.WorkerName + ",",
		"",
		fmt.Sprintf("%s invited you to the %s team.", in.InvitedByName, in.CompanyName),
		"",
		loginHint(in.ToEmail, in.TemporaryPassword),
		"",
		"Open app: " + m.brand.AppURL,
	}, "\n")

	return m.sender.Send(ctx, Message{
		To:      []string{in.ToEmail},
		Subject: "Team invite: " + in.CompanyName,
		Text:    text,
		HTML:    html,
	})
}

// SendVisitReport mails the report to the deduplicated, lower-cased
// recipients. It is a no-op when none remain.
func (m *Mailer) SendVisitReport(ctx context.Context, in VisitReport) error {
	recipients := normalizeRecipients(in.ToEmails)
	if len(recipients) == 0 {
		return nil
	}

	html, err := m.render("visit_report", page{
		Title:     "Visit update: " + in.PropertyName,
		Preheader: "New visit report for " + in.PropertyName,
		Data:      in,
	})
	if err != nil {
		return err
	}

	note := in.Note
	if note == "" {
		note = "(No note provided)"
	}
	checklist := "(No completed items)"
	if len(in.ChecklistItems) > 0 {
		checklist = strings.Join(in.ChecklistItems, ", ")
	}

	lines := []string{
		fmt.Sprintf("New visit report for %q", in.PropertyName),
		"",
		"Worker: " + in.WorkerName,
		"Service: " + in.ServiceLabel,
		"Date: " + in.CreatedAt.Format(reportTimeLayout),
		"",
		"Note: " + note,
		"",
		"Checklist: " + checklist,
		"",
	}
	if len(in.PhotoURLs) > 0 {
		lines = append(lines, "Photos:")
		lines = append(lines, in.PhotoURLs...)
	} else {
		lines = append(lines, "No photos attached.")
	}
	lines = append(lines, "", "Open app: "+m.brand.AppURL)

	return m.sender.Send(ctx, Message{
		To:      recipients,
		Subject: "Visit update: " + in.PropertyName,
		Text:    strings.Join(lines, "\n"),
		HTML:    html,
	})
}

func (m *Mailer) render(name string, p page) (string, error) {
	p.Brand = m.brand

	var buf bytes.Buffer
	if err := m.templates[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func loginHint(email, temporaryPassword string) string {
	if temporaryPassword != "" {
		return "Log in with your email: " + email + "\nTemporary password: " + temporaryPassword
	}
	return "Log in with your email: " + email + "\nUse your existing password to sign in."
}

func normalizeRecipients(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

type smtpSender struct {
	cfg config.MailConfig
}

func newSMTPSender(cfg config.MailConfig) *smtpSender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(s.cfg.FromName, s.cfg.FromEmail); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
	}
	if s.cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}
