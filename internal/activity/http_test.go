package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/me/capsched/internal/logging"
)

func TestHTTPRegistry_RecordActivity(t *testing.T) {
	var got Activity
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/activities" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	reg := NewHTTPRegistry(DefaultClientConfig(srv.URL), logging.Discard())
	err := reg.RecordActivity(context.Background(), Activity{
		AgentID:      "agent-1",
		ActivityType: TypeHoursWorked,
		Metadata:     map[string]any{"hours": 4.5},
	})
	if err != nil {
		t.Fatalf("RecordActivity: %v", err)
	}
	if got.AgentID != "agent-1" || got.ActivityType != TypeHoursWorked {
		t.Errorf("registry received %+v", got)
	}
}

func TestHTTPRegistry_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	reg := NewHTTPRegistry(DefaultClientConfig(srv.URL), logging.Discard())
	if err := reg.RecordActivity(context.Background(), Activity{AgentID: "a"}); err == nil {
		t.Error("expected error on 502 response")
	}
}
