package email

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"

	"github.com/nhle/crm-console/internal/intake"
	"github.com/nhle/crm-console/internal/model"
)

const (
	defaultLookback = 7 * 24 * time.Hour
	fetchLimit      = 100
)

// Personal mail providers never name the sender's company.
var freemailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"outlook.com": true,
	"hotmail.com": true,
	"icloud.com":  true,
	"proton.me":   true,
}

type mailbox interface {
	Ping(ctx context.Context) error
	FetchEnvelopes(ctx context.Context, since time.Time, limit int) ([]Envelope, error)
}

// Adapter implements intake.Source for an IMAP inbox. Every message in
// the lookback window becomes a candidate lead.
type Adapter struct {
	mailbox  mailbox
	name     string
	username string
	lookback time.Duration
	now      func() time.Time
}

var _ intake.Source = (*Adapter)(nil)

// NewAdapter creates a new email intake adapter.
func NewAdapter(cfg model.IntakeConfig, password string) *Adapter {
	return &Adapter{
		mailbox: NewIMAPClient(
			cfg.Name, cfg.Host, cfg.Port, cfg.Username, password, cfg.TLS,
		),
		name:     cfg.Name,
		username: cfg.Username,
		lookback: defaultLookback,
		now:      time.Now,
	}
}

// Name returns the configured intake name.
func (a *Adapter) Name() string {
	return a.name
}

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and selecting INBOX. Returns the username on success.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	if err := a.mailbox.Ping(ctx); err != nil {
		return "", fmt.Errorf("validating intake %s: %w", a.name, err)
	}
	return a.username, nil
}

// FetchLeads maps recent inbox messages to leads. Automatic replies and
// mail sent from the inbox itself are skipped.
func (a *Adapter) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	now := a.now()
	envelopes, err := a.mailbox.FetchEnvelopes(ctx, now.Add(-a.lookback), fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching intake %s: %w", a.name, err)
	}

	leads := make([]model.Lead, 0, len(envelopes))
	for _, env := range envelopes {
		h := parseHeader(env.Header)
		if a.skip(env, h) {
			continue
		}
		leads = append(leads, a.leadFromEnvelope(env, h, now))
	}
	return leads, nil
}

func (a *Adapter) skip(env Envelope, h mail.Header) bool {
	if strings.EqualFold(env.FromAddr, a.username) {
		return true
	}
	if v := h.Get("Auto-Submitted"); v != "" && !strings.EqualFold(v, "no") {
		return true
	}
	return false
}

// leadFromEnvelope converts a message into a lead. Reply-To wins over From
// because contact forms relay through a fixed sender.
func (a *Adapter) leadFromEnvelope(env Envelope, h mail.Header, now time.Time) model.Lead {
	name, addr := env.FromName, env.FromAddr
	if replyTo, err := h.AddressList("Reply-To"); err == nil && len(replyTo) > 0 {
		addr = replyTo[0].Address
		if replyTo[0].Name != "" {
			name = replyTo[0].Name
		}
	}
	if name == "" {
		name, _, _ = strings.Cut(addr, "@")
	}

	subject := env.Subject
	if subject == "" {
		subject, _ = h.Subject()
	}

	messageID := env.MessageID
	if messageID == "" {
		messageID, _ = h.MessageID()
	}
	if messageID == "" {
		messageID = fmt.Sprintf("%s:%d", a.name, env.UID)
	}

	created := env.Date
	if created.IsZero() {
		created = now
	}

	return model.Lead{
		Name:      name,
		Email:     addr,
		Company:   companyOf(h, addr),
		Subject:   subject,
		Source:    model.LeadSourceEmail,
		Status:    model.LeadStatusNew,
		MessageID: messageID,
		CreatedAt: created,
	}
}

// parseHeader reads a raw header block with go-message. A malformed block
// yields an empty header.
func parseHeader(raw []byte) mail.Header {
	if len(raw) == 0 {
		return mail.Header{}
	}
	h, err := textproto.ReadHeader(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return mail.Header{}
	}
	return mail.Header{Header: message.Header{Header: h}}
}

// companyOf prefers the Organization header and falls back to the
// sender's domain for business addresses.
func companyOf(h mail.Header, addr string) string {
	if org := strings.TrimSpace(h.Get("Organization")); org != "" {
		return org
	}
	_, domain, ok := strings.Cut(strings.ToLower(addr), "@")
	if !ok || freemailDomains[domain] {
		return ""
	}
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
