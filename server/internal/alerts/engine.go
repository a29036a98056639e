package alerts

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tvsegment/tvsegment/server/internal/config"
)

const maxHistoryLen = 200

// Alert kinds raised by the prediction path.
const (
	KindUnknownLabel     = "unknown_cluster_label"
	KindArtifactMismatch = "artifact_mismatch"
)

// Alert is one notification about an anomalous prediction.
type Alert struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Key      string    `json:"key"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	FiredAt  time.Time `json:"fired_at"`
}

// Engine delivers webhook notifications for prediction anomalies, suppressing
// repeats of the same kind+key within the cooldown.
//
// Engine is safe for concurrent use.
type Engine struct {
	webhooks []config.WebhookConfig
	cooldown time.Duration

	mu       sync.Mutex
	lastFire map[string]time.Time
	history  []*Alert
	client   *http.Client
	now      func() time.Time
	deliver  func(*Alert) // injectable for tests
}

// New creates an Engine from the alerts configuration. An Engine without
// webhooks still records and logs alerts.
func New(cfg config.AlertsConfig) *Engine {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = config.DefaultAlertCooldown
	}
	e := &Engine{
		webhooks: cfg.Webhooks,
		cooldown: cooldown,
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
	e.deliver = e.send
	return e
}

// Fire raises an alert of kind for key (e.g. the offending label). It returns
// false when the alert was suppressed by the cooldown. Delivery is
// asynchronous.
func (e *Engine) Fire(kind, key, severity, message string) bool {
	now := e.now()
	dedup := kind + ":" + key

	e.mu.Lock()
	if last, ok := e.lastFire[dedup]; ok && now.Sub(last) < e.cooldown {
		e.mu.Unlock()
		return false
	}
	if severity == "" {
		severity = "warning"
	}
	a := &Alert{
		ID:       uuid.NewString(),
		Kind:     kind,
		Key:      key,
		Severity: severity,
		Message:  message,
		FiredAt:  now,
	}
	e.lastFire[dedup] = now
	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	alertCopy := *a
	e.mu.Unlock()

	slog.Warn("alert fired",
		"kind", kind,
		"key", key,
		"severity", severity,
		"message", message,
	)
	go e.deliver(&alertCopy)
	return true
}

// Recent returns copies of the alerts fired so far, newest first.
func (e *Engine) Recent() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Alert, 0, len(e.history))
	for i := len(e.history) - 1; i >= 0; i-- {
		cp := *e.history[i]
		out = append(out, &cp)
	}
	return out
}
