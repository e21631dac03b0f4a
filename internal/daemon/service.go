// Package daemon runs the background service: cron jobs that refresh the
// pipeline and dispatch due reminders, plus a loopback HTTP status API.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cardwise/internal/engine"
	"github.com/theirongolddev/cardwise/internal/model"
	"github.com/theirongolddev/cardwise/internal/notify"
	"github.com/theirongolddev/cardwise/internal/pipeline"
)

// Job names, used in status and log fields.
const (
	JobRefresh  = "refresh"
	JobDispatch = "dispatch"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr           string
	RefreshSpec    string
	DispatchSpec   string
	EventsBuffer   int
	RefreshOnStart bool
	DBPath         string
}

// Refresher runs one pipeline refresh.
type Refresher interface {
	Refresh(ctx context.Context) (pipeline.RefreshResult, error)
}

// Dispatcher delivers due reminders.
type Dispatcher interface {
	Dispatch(ctx context.Context) (notify.DispatchResult, error)
}

// PendingLister reports queued reminders.
type PendingLister interface {
	Pending(ctx context.Context) ([]notify.Reminder, error)
}

// Snapshot is a compact card state for status and event payloads.
type Snapshot struct {
	At                  time.Time `json:"at"`
	Cards               int       `json:"cards"`
	ActiveCards         int       `json:"active_cards"`
	TotalUsage          float64   `json:"total_usage"`
	TotalLimit          float64   `json:"total_limit"`
	UtilizationPercent  float64   `json:"utilization_percent"`
	HealthScore         int       `json:"health_score"`
	HealthRating        string    `json:"health_rating"`
	ActiveSubscriptions int       `json:"active_subscriptions"`
	PendingReminders    int       `json:"pending_reminders"`
}

// Delta captures what a job changed.
type Delta struct {
	Usage       float64 `json:"usage"`
	HealthScore int     `json:"health_score"`
	Emitted     int     `json:"emitted"`
	Delivered   int     `json:"delivered"`
	Failed      int     `json:"failed"`
}

func (d Delta) isZero() bool {
	return d.Usage == 0 &&
		d.HealthScore == 0 &&
		d.Emitted == 0 &&
		d.Delivered == 0 &&
		d.Failed == 0
}

// Event is emitted whenever a job changes something.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// JobStatus describes one scheduled job.
type JobStatus struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time   `json:"started_at"`
	LastRefreshAt   time.Time   `json:"last_refresh_at"`
	LastDispatchAt  time.Time   `json:"last_dispatch_at"`
	RefreshCount    int64       `json:"refresh_count"`
	DispatchCount   int64       `json:"dispatch_count"`
	DBPath          string      `json:"db_path,omitempty"`
	Jobs            []JobStatus `json:"jobs"`
	Summary         Snapshot    `json:"summary"`
	LastError       string      `json:"last_error,omitempty"`
	LastErrorJob    string      `json:"last_error_job,omitempty"`
	LastErrorAt     time.Time   `json:"last_error_at,omitempty"`
	EventCount      int         `json:"event_count"`
	SubscriberCount int         `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg        Config
	refresher  Refresher
	dispatcher Dispatcher
	pending    PendingLister
	log        logrus.FieldLogger
	now        func() time.Time

	cron *cron.Cron
	jobs map[string]cron.EntryID

	mu             sync.RWMutex
	startedAt      time.Time
	lastRefreshAt  time.Time
	lastDispatchAt time.Time
	refreshCount   int64
	dispatchCount  int64
	lastError      string
	lastErrorJob   string
	lastErrorAt    time.Time
	hasSnapshot    bool
	snapshot       Snapshot
	nextEventID    int64
	events         []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service. Dispatcher and pending lister may be nil.
func New(cfg Config, r Refresher, d Dispatcher, p PendingLister, log logrus.FieldLogger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.RefreshSpec == "" {
		cfg.RefreshSpec = "@every 1h"
	}
	if cfg.DispatchSpec == "" {
		cfg.DispatchSpec = "@every 1m"
	}

	return &Service{
		cfg:        cfg,
		refresher:  r,
		dispatcher: d,
		pending:    p,
		log:        log,
		now:        time.Now,
		startedAt:  time.Now(),
		jobs:       make(map[string]cron.EntryID),
		subs:       make(map[int]chan Event),
	}
}

// Schedule registers the cron jobs without starting them. Run calls it.
func (s *Service) Schedule(ctx context.Context) error {
	s.cron = cron.New(
		cron.WithLogger(cron.PrintfLogger(s.log)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(s.log)), cron.SkipIfStillRunning(cron.PrintfLogger(s.log))),
	)

	id, err := s.cron.AddFunc(s.cfg.RefreshSpec, func() { s.RefreshOnce(ctx) })
	if err != nil {
		return fmt.Errorf("scheduling %s job %q: %w", JobRefresh, s.cfg.RefreshSpec, err)
	}
	s.jobs[JobRefresh] = id

	if s.dispatcher != nil {
		id, err := s.cron.AddFunc(s.cfg.DispatchSpec, func() { s.DispatchOnce(ctx) })
		if err != nil {
			return fmt.Errorf("scheduling %s job %q: %w", JobDispatch, s.cfg.DispatchSpec, err)
		}
		s.jobs[JobDispatch] = id
	}
	return nil
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run starts the jobs and HTTP endpoints until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Schedule(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Deliver what came due while stopped before re-planning replaces it.
	if s.cfg.RefreshOnStart {
		s.DispatchOnce(ctx)
		s.RefreshOnce(ctx)
	}
	s.cron.Start()

	select {
	case <-ctx.Done():
		stopped := s.cron.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		select {
		case <-stopped.Done():
		case <-shutdownCtx.Done():
		}
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		s.cron.Stop()
		return fmt.Errorf("daemon http server: %w", err)
	}
}

// RefreshOnce runs one pipeline refresh and publishes what changed.
func (s *Service) RefreshOnce(ctx context.Context) {
	res, err := s.refresher.Refresh(ctx)
	now := s.now()
	if err != nil {
		s.recordError(JobRefresh, err, now)
		return
	}

	snap := snapshotFrom(res.Snapshot, now)
	snap.PendingReminders = s.countPending(ctx)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastRefreshAt = now
	s.refreshCount++
	s.clearError(JobRefresh)

	delta := diffSnapshots(prev, snap)
	delta.Emitted = len(res.Emitted)
	switch {
	case !prevExists:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "snapshot", Timestamp: now, Snapshot: snap, Delta: Delta{Emitted: delta.Emitted}}
		publish = true
	case len(res.Emitted) > 0:
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "subscriptions_billed", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	case !delta.isZero():
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: "usage_delta", Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"job":     JobRefresh,
		"emitted": len(res.Emitted),
		"updated": res.Updated,
	}).Info("job finished")

	if publish {
		s.publishEvent(ev)
	}
}

// DispatchOnce delivers due reminders.
func (s *Service) DispatchOnce(ctx context.Context) {
	if s.dispatcher == nil {
		return
	}
	res, err := s.dispatcher.Dispatch(ctx)
	now := s.now()
	if err != nil {
		s.recordError(JobDispatch, err, now)
		return
	}
	pending := s.countPending(ctx)

	s.mu.Lock()
	s.lastDispatchAt = now
	s.dispatchCount++
	s.clearError(JobDispatch)
	s.snapshot.PendingReminders = pending
	snap := s.snapshot

	var ev Event
	publish := res.Delivered > 0 || res.Failed > 0
	if publish {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "reminders_dispatched",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     Delta{Delivered: res.Delivered, Failed: res.Failed},
		}
	}
	s.mu.Unlock()

	if res.Delivered > 0 || res.Failed > 0 || res.Expired > 0 {
		s.log.WithFields(logrus.Fields{
			"job":       JobDispatch,
			"delivered": res.Delivered,
			"failed":    res.Failed,
			"expired":   res.Expired,
		}).Info("job finished")
	}
	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) recordError(job string, err error, at time.Time) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.lastErrorJob = job
	s.lastErrorAt = at
	switch job {
	case JobRefresh:
		s.lastRefreshAt = at
		s.refreshCount++
	case JobDispatch:
		s.lastDispatchAt = at
		s.dispatchCount++
	}
	s.mu.Unlock()

	s.log.WithError(err).WithField("job", job).Error("job failed")
}

// clearError drops the last error once the job that raised it succeeds.
// Caller holds s.mu.
func (s *Service) clearError(job string) {
	if s.lastErrorJob == job {
		s.lastError = ""
		s.lastErrorJob = ""
		s.lastErrorAt = time.Time{}
	}
}

func (s *Service) countPending(ctx context.Context) int {
	if s.pending == nil {
		return 0
	}
	rs, err := s.pending.Pending(ctx)
	if err != nil {
		s.log.WithError(err).Warn("listing pending reminders")
		return 0
	}
	return len(rs)
}

func snapshotFrom(snap model.Snapshot, at time.Time) Snapshot {
	out := Snapshot{At: at, Cards: len(snap.Cards)}
	for _, c := range snap.Cards {
		if c.Archived {
			continue
		}
		out.ActiveCards++
		out.TotalUsage += c.CurrentUsage.InexactFloat64()
		out.TotalLimit += c.CreditLimit.InexactFloat64()
	}
	for _, sub := range snap.Subscriptions {
		if sub.Active {
			out.ActiveSubscriptions++
		}
	}
	rep := engine.AggregateHealth(snap.Cards, snap.Transactions, at)
	out.UtilizationPercent = rep.UtilizationPercent
	out.HealthScore = rep.Score
	out.HealthRating = string(rep.Rating)
	return out
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Usage:       curr.TotalUsage - prev.TotalUsage,
		HealthScore: curr.HealthScore - prev.HealthScore,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) jobStatuses() []JobStatus {
	if s.cron == nil {
		return nil
	}
	specs := map[string]string{JobRefresh: s.cfg.RefreshSpec, JobDispatch: s.cfg.DispatchSpec}
	var out []JobStatus
	for _, name := range []string{JobRefresh, JobDispatch} {
		id, ok := s.jobs[name]
		if !ok {
			continue
		}
		e := s.cron.Entry(id)
		out = append(out, JobStatus{Name: name, Spec: specs[name], Next: e.Next, Prev: e.Prev})
	}
	return out
}

func (s *Service) snapshotStatus() Status {
	jobs := s.jobStatuses()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastRefreshAt:   s.lastRefreshAt,
		LastDispatchAt:  s.lastDispatchAt,
		RefreshCount:    s.refreshCount,
		DispatchCount:   s.dispatchCount,
		DBPath:          s.cfg.DBPath,
		Jobs:            jobs,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		LastErrorJob:    s.lastErrorJob,
		LastErrorAt:     s.lastErrorAt,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"request_id": middleware.GetReqID(r.Context()),
			"took":       time.Since(start).Round(time.Microsecond).String(),
		}).Debug("http request")
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	current := Event{
		Type:      "snapshot",
		Timestamp: s.now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
