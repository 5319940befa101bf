package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/lifecycle/service"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/events"
	"leadbot_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const leadMessage = `{"lead_id": "abc-1234", "first_name": "Jane", "last_name": "Doe", "email": "jane@example.com", "phone": "+31612345678", "city": "Haarlem"}`

func newTestRouter(t *testing.T) (*gin.Engine, *repository.Memory, *slack.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemory()
	msgr := slack.NewMemory()
	log := logger.New("test")
	svc := service.New(store, msgr, events.NewInMemoryBus(log), service.Config{}, log)

	engine := gin.New()
	New(svc, "C-LEADS", log).RegisterRoutes(engine.Group("/api/v1/slack"))
	return engine, store, msgr
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, engine *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestEventsURLVerification(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	rec := postJSON(t, engine, "/api/v1/slack/events", map[string]string{
		"type":      "url_verification",
		"challenge": "abc123",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["challenge"] != "abc123" {
		t.Errorf("challenge = %q, want echoed value", resp["challenge"])
	}
}

func TestEventsMessageIngestsLead(t *testing.T) {
	engine, store, msgr := newTestRouter(t)
	msgr.SeedParent(slack.ThreadRef{ChannelID: "C-LEADS", ThreadTS: "1700000000.000100"},
		slack.Message{User: "U-BOT", Text: leadMessage})

	rec := postJSON(t, engine, "/api/v1/slack/events", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type":    "message",
			"user":    "U-BOT",
			"text":    leadMessage,
			"channel": "C-LEADS",
			"ts":      "1700000000.000100",
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	lead, err := store.GetByID(context.Background(), "abc-1234")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lead.Name != "Jane Doe" {
		t.Errorf("name = %q", lead.Name)
	}
}

func TestEventsMessageOutsideLeadsChannelIgnored(t *testing.T) {
	engine, store, msgr := newTestRouter(t)
	msgr.SeedParent(slack.ThreadRef{ChannelID: "C-RANDOM", ThreadTS: "1700000000.000100"},
		slack.Message{User: "U-BOB", Text: leadMessage})

	rec := postJSON(t, engine, "/api/v1/slack/events", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type":    "message",
			"user":    "U-BOB",
			"text":    leadMessage,
			"channel": "C-RANDOM",
			"ts":      "1700000000.000100",
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := store.GetByID(context.Background(), "abc-1234"); err == nil {
		t.Error("lead payload pasted outside the leads channel must not be ingested")
	}
	if len(msgr.Posted) != 0 {
		t.Errorf("posted %d messages, want none", len(msgr.Posted))
	}
}

func TestEventsMessageEditIgnored(t *testing.T) {
	engine, store, _ := newTestRouter(t)

	rec := postJSON(t, engine, "/api/v1/slack/events", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type":    "message",
			"subtype": "message_changed",
			"text":    leadMessage,
			"channel": "C-LEADS",
			"ts":      "1700000000.000100",
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, err := store.GetByID(context.Background(), "abc-1234"); err == nil {
		t.Error("edited message must not be ingested")
	}
}

func TestEventsReactionUpdatesStage(t *testing.T) {
	engine, store, msgr := newTestRouter(t)

	ref := slack.ThreadRef{ChannelID: "C-LEADS", ThreadTS: "1700000000.000100"}
	msgr.SeedParent(ref, slack.Message{User: "U-BOT", Text: leadMessage})

	// Ingest first so the reaction has a lead to act on.
	postJSON(t, engine, "/api/v1/slack/events", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type": "message", "text": leadMessage, "channel": "C-LEADS", "ts": "1700000000.000100",
		},
	})

	rec := postJSON(t, engine, "/api/v1/slack/events", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type":     "reaction_added",
			"user":     "U-ALICE",
			"reaction": "white_check_mark",
			"item": map[string]any{
				"channel": "C-LEADS",
				"ts":      "1700000000.000100",
			},
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	lead, err := store.GetByID(context.Background(), "abc-1234")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lead.Status != "Won" {
		t.Errorf("status = %q, want Won", lead.Status)
	}
}

func TestCommandClaim(t *testing.T) {
	engine, store, msgr := newTestRouter(t)

	ref := slack.ThreadRef{ChannelID: "C-LEADS", ThreadTS: "1700000000.000100"}
	msgr.SeedParent(ref, slack.Message{User: "U-BOT", Text: leadMessage})
	postJSON(t, engine, "/api/v1/slack/events", map[string]any{
		"type": "event_callback",
		"event": map[string]any{
			"type": "message", "text": leadMessage, "channel": "C-LEADS", "ts": "1700000000.000100",
		},
	})

	rec := postForm(t, engine, "/api/v1/slack/commands", url.Values{
		"command":    {"/claim"},
		"user_id":    {"U-ALICE"},
		"channel_id": {"C-LEADS"},
		"thread_ts":  {"1700000000.000100"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	lead, _ := store.GetByID(context.Background(), "abc-1234")
	if lead.Owner == nil || *lead.Owner != "U-ALICE" {
		t.Errorf("owner = %v, want U-ALICE", lead.Owner)
	}
}

func TestCommandOutsideThreadReturnsEphemeralRejection(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	rec := postForm(t, engine, "/api/v1/slack/commands", url.Values{
		"command":    {"/claim"},
		"user_id":    {"U-ALICE"},
		"channel_id": {"C-LEADS"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with ephemeral body", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["response_type"] != "ephemeral" {
		t.Errorf("response_type = %q, want ephemeral", resp["response_type"])
	}
	if !strings.Contains(resp["text"], "thread") {
		t.Errorf("rejection text = %q", resp["text"])
	}
}

func TestCommandUnknown(t *testing.T) {
	engine, _, _ := newTestRouter(t)

	rec := postForm(t, engine, "/api/v1/slack/commands", url.Values{
		"command":    {"/frobnicate"},
		"user_id":    {"U-ALICE"},
		"channel_id": {"C-LEADS"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Unknown command") {
		t.Errorf("body = %q", rec.Body.String())
	}
}
