// Package sync polls intake sources in the background and records the
// leads they produce.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/crm-console/internal/intake"
	"github.com/nhle/crm-console/internal/model"
)

// SyncState represents the current state of a source sync operation.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

func (s SyncState) String() string {
	switch s {
	case SyncRunning:
		return "syncing"
	case SyncError:
		return "error"
	default:
		return "idle"
	}
}

// SyncStatus holds the sync state for a single source.
type SyncStatus struct {
	Source   string
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a sync operation completes.
type SyncResultMsg struct {
	Source       string
	Error        error
	AuthError    *AuthErrorMsg
	Fetched      int
	NewLeadCount int
}

// AuthErrorMsg is a tea.Msg sent when a source returns an authentication error.
type AuthErrorMsg struct {
	Source  string
	Message string
}

// LeadSink receives the leads found by the poller.
type LeadSink interface {
	UpsertLead(ctx context.Context, l *model.Lead) (bool, error)
	CreateNotification(ctx context.Context, n model.Notification) error
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// sourceEntry holds a registered source, its interval and its trigger.
type sourceEntry struct {
	src      intake.Source
	interval time.Duration
	trigger  chan struct{}
}

// Poller orchestrates background polling of registered sources.
type Poller struct {
	sink     LeadSink
	logger   *zap.Logger
	sources  []sourceEntry
	statuses map[string]*SyncStatus
	resultCh chan SyncResultMsg
	stopCh   chan struct{}
	wg       gosync.WaitGroup
	mu       gosync.Mutex
	running  bool
}

// New creates a new Poller writing into sink.
func New(sink LeadSink, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		sink:     sink,
		logger:   logger,
		statuses: make(map[string]*SyncStatus),
		resultCh: make(chan SyncResultMsg, 16),
		stopCh:   make(chan struct{}),
	}
}

// RegisterSource adds a source polled every interval. Non-positive
// intervals default to five minutes.
func (p *Poller) RegisterSource(src intake.Source, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if interval <= 0 {
		interval = 5 * time.Minute
	}
	p.sources = append(p.sources, sourceEntry{
		src:      src,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	})
	p.statuses[src.Name()] = &SyncStatus{
		Source: src.Name(),
		State:  SyncIdle,
	}
}

// Start returns a tea.Cmd that starts all polling goroutines and
// subscribes to results. Without sources it returns nil.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || len(p.sources) == 0 {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	for _, entry := range sources {
		p.wg.Add(1)
		go p.pollSource(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// RefreshAll triggers an immediate poll of all registered sources.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.sources {
		select {
		case entry.trigger <- struct{}{}:
		default:
			// A refresh is already pending.
		}
	}
}

// Statuses returns the current sync status of all registered sources in
// registration order.
func (p *Poller) Statuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.sources))
	for _, entry := range p.sources {
		statuses = append(statuses, *p.statuses[entry.src.Name()])
	}
	return statuses
}

// pollSource runs the polling loop for a single source.
func (p *Poller) pollSource(entry sourceEntry) {
	defer p.wg.Done()

	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.fetchAndUpsert(entry.src)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchAndUpsert(entry.src)
		case <-entry.trigger:
			p.fetchAndUpsert(entry.src)
		}
	}
}

// fetchAndUpsert performs a single fetch operation, upserts leads into the
// sink, notifies about new ones and sends a SyncResultMsg.
func (p *Poller) fetchAndUpsert(src intake.Source) {
	name := src.Name()
	p.setStatus(name, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	leads, err := src.FetchLeads(ctx)
	if err != nil {
		p.setStatus(name, SyncError, err)
		p.logger.Warn("intake fetch failed", zap.String("source", name), zap.Error(err))

		// Detect auth errors and emit a specific message.
		if intake.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				Source: name,
				Error:  err,
				AuthError: &AuthErrorMsg{
					Source: name,
					Message: fmt.Sprintf(
						"%s: authentication failed. Run `crm login --intake %s`.",
						name, name,
					),
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{Source: name, Error: err})
		return
	}

	newLeads := 0
	for i := range leads {
		lead := &leads[i]
		created, err := p.sink.UpsertLead(ctx, lead)
		if err != nil {
			p.setStatus(name, SyncError, err)
			p.sendResult(SyncResultMsg{Source: name, Error: err})
			return
		}
		if !created {
			continue
		}
		newLeads++

		notification := model.Notification{
			Kind:      model.NotificationLead,
			Subject:   lead.Subject,
			Message:   fmt.Sprintf("New lead from %s <%s>", lead.Name, lead.Email),
			CreatedAt: time.Now(),
		}
		if err := p.sink.CreateNotification(ctx, notification); err != nil {
			p.logger.Warn("creating lead notification", zap.String("source", name), zap.Error(err))
		}
	}

	p.logger.Info("intake synced",
		zap.String("source", name),
		zap.Int("fetched", len(leads)),
		zap.Int("new", newLeads),
	)

	p.setStatus(name, SyncIdle, nil)
	p.sendResult(SyncResultMsg{
		Source:       name,
		Fetched:      len(leads),
		NewLeadCount: newLeads,
	})
}

// setStatus updates the sync status for a source.
func (p *Poller) setStatus(name string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
