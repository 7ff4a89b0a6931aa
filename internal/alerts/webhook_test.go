package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/model"
	"github.com/netsentry/netsentry/internal/repo"
)

// capture records every request body a webhook endpoint receives.
type capture struct {
	mu     sync.Mutex
	bodies []string
}

func (c *capture) handler(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, string(b))
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (c *capture) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.bodies...)
}

func testAlert() *model.HealthAlert {
	return &model.HealthAlert{
		ID:        "al-1",
		Type:      model.AlertTypeNetworkHealth,
		Severity:  model.SeverityCritical,
		Message:   "Network health critical: 25/100",
		Timestamp: time.Now(),
		Value:     25,
		Threshold: 30,
	}
}

func TestDeliver(t *testing.T) {
	var slack, teams, plain capture
	slackSrv := httptest.NewServer(http.HandlerFunc(slack.handler))
	teamsSrv := httptest.NewServer(http.HandlerFunc(teams.handler))
	plainSrv := httptest.NewServer(http.HandlerFunc(plain.handler))
	t.Cleanup(slackSrv.Close)
	t.Cleanup(teamsSrv.Close)
	t.Cleanup(plainSrv.Close)

	t.Setenv("TEST_SLACK_URL", slackSrv.URL)
	t.Setenv("TEST_TEAMS_URL", teamsSrv.URL)
	t.Setenv("TEST_HTTP_URL", plainSrv.URL)

	webhooks := []config.WebhookConfig{
		{Type: "slack", URLEnv: "TEST_SLACK_URL"},
		{Type: "teams", URLEnv: "TEST_TEAMS_URL"},
		{Type: "http", URLEnv: "TEST_HTTP_URL"},
		{Type: "slack", URLEnv: "UNSET_URL_ENV"}, // unresolvable, must be skipped
	}
	e := NewEmitter(repo.NewMemory(), config.AlertsConfig{
		DedupWindow: 30 * time.Minute,
		Webhooks:    webhooks,
	}, nil)

	e.deliver(testAlert(), webhooks)

	if got := slack.received(); len(got) != 1 {
		t.Fatalf("slack deliveries = %d, want 1", len(got))
	} else if !strings.Contains(got[0], "[CRITICAL]") {
		t.Errorf("slack body = %s, want severity label", got[0])
	}

	if got := teams.received(); len(got) != 1 {
		t.Fatalf("teams deliveries = %d, want 1", len(got))
	} else {
		var card map[string]any
		if err := json.Unmarshal([]byte(got[0]), &card); err != nil {
			t.Fatalf("teams body: %v", err)
		}
		if card["@type"] != "MessageCard" {
			t.Errorf("teams @type = %v, want MessageCard", card["@type"])
		}
	}

	if got := plain.received(); len(got) != 1 {
		t.Fatalf("http deliveries = %d, want 1", len(got))
	} else {
		var payload struct {
			Alert model.HealthAlert `json:"alert"`
		}
		if err := json.Unmarshal([]byte(got[0]), &payload); err != nil {
			t.Fatalf("http body: %v", err)
		}
		if payload.Alert.ID != "al-1" || payload.Alert.Value != 25 {
			t.Errorf("http alert = %+v, want the delivered alert", payload.Alert)
		}
	}
}

func TestDeliver_EndpointFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("TEST_HTTP_URL", srv.URL)

	webhooks := []config.WebhookConfig{{Type: "http", URLEnv: "TEST_HTTP_URL"}}
	e := NewEmitter(repo.NewMemory(), config.AlertsConfig{
		DedupWindow: 30 * time.Minute,
		Webhooks:    webhooks,
	}, nil)

	// Must not panic or propagate anything.
	e.deliver(testAlert(), webhooks)
}
