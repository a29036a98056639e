package alerts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tvsegment/tvsegment/server/internal/config"
)

func newTestEngine(cfg config.AlertsConfig, now time.Time) (*Engine, chan *Alert) {
	e := New(cfg)
	e.now = func() time.Time { return now }
	delivered := make(chan *Alert, 16)
	e.deliver = func(a *Alert) { delivered <- a }
	return e, delivered
}

func TestFire_DeliversOnce(t *testing.T) {
	e, delivered := newTestEngine(config.AlertsConfig{}, time.Now())

	if !e.Fire(KindUnknownLabel, "3", "", "label 3 has no interpretation") {
		t.Fatal("Fire: got suppressed, want fired")
	}
	select {
	case a := <-delivered:
		if a.Kind != KindUnknownLabel || a.Key != "3" {
			t.Errorf("alert: got %+v", a)
		}
		if a.Severity != "warning" {
			t.Errorf("severity: got %q, want warning default", a.Severity)
		}
	case <-time.After(time.Second):
		t.Fatal("alert was not delivered")
	}
}

func TestFire_CooldownSuppressesRepeats(t *testing.T) {
	base := time.Now()
	e, _ := newTestEngine(config.AlertsConfig{Cooldown: time.Minute}, base)

	if !e.Fire(KindUnknownLabel, "3", "", "first") {
		t.Fatal("first Fire suppressed")
	}
	if e.Fire(KindUnknownLabel, "3", "", "second") {
		t.Error("second Fire within cooldown: got fired, want suppressed")
	}
	// Different key is independent.
	if !e.Fire(KindUnknownLabel, "4", "", "other label") {
		t.Error("Fire for a different key: got suppressed")
	}

	e.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !e.Fire(KindUnknownLabel, "3", "", "after cooldown") {
		t.Error("Fire after cooldown: got suppressed")
	}

	if n := len(e.Recent()); n != 3 {
		t.Errorf("Recent: got %d alerts, want 3", n)
	}
	if r := e.Recent(); r[0].Message != "after cooldown" {
		t.Errorf("Recent[0]: got %q, want newest first", r[0].Message)
	}
}

func TestNew_DefaultCooldown(t *testing.T) {
	e := New(config.AlertsConfig{})
	if e.cooldown != config.DefaultAlertCooldown {
		t.Errorf("cooldown: got %v, want %v", e.cooldown, config.DefaultAlertCooldown)
	}
}

func TestSend_SlackAndHTTP(t *testing.T) {
	bodies := make(chan map[string]interface{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&m)
		bodies <- m
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	t.Setenv("TEST_SLACK_URL", srv.URL)
	t.Setenv("TEST_HTTP_URL", srv.URL)
	e := New(config.AlertsConfig{Webhooks: []config.WebhookConfig{
		{Type: "slack", URLEnv: "TEST_SLACK_URL"},
		{Type: "http", URLEnv: "TEST_HTTP_URL"},
		{Type: "teams", URLEnv: "TEST_UNSET_URL"},
	}})

	e.send(&Alert{Kind: KindArtifactMismatch, Key: "model", Severity: "critical", Message: "centroid 2 has 4 features"})

	slack := <-bodies
	if text, _ := slack["text"].(string); !strings.Contains(text, "[CRITICAL]") {
		t.Errorf("slack text: got %q", text)
	}
	generic := <-bodies
	if _, ok := generic["alert"]; !ok {
		t.Errorf("http body: got %v, want alert key", generic)
	}
	select {
	case extra := <-bodies:
		t.Errorf("unexpected delivery to unset webhook: %v", extra)
	default:
	}
}

func TestPost_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := New(config.AlertsConfig{})
	if err := e.post(srv.URL, []byte(`{}`)); err == nil {
		t.Fatal("expected error for HTTP 502, got nil")
	}
}
