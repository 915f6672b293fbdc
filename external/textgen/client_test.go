package textgen

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/match-tracker/internal/domain/match"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

func sampleRecords() []match.Match {
	return []match.Match{
		{
			Status:          match.StatusFinished,
			ScoreText:       "2–1",
			HomeTeam:        "Arsenal",
			AwayTeam:        "Chelsea",
			CompetitionCode: "PL",
			CompetitionName: "Premier League",
			DisplayDate:     "Sat, Nov 15",
		},
	}
}

func TestClient_GenerateSummary(t *testing.T) {
	t.Parallel()

	var gotKey, gotVersion string
	var gotBody messagesRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		raw, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "Arsenal edged Chelsea 2-1."}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Logger:  logging.NewNop(),
	})

	text, err := client.GenerateSummary(context.Background(), sampleRecords())
	if err != nil {
		t.Fatalf("generate summary: %v", err)
	}
	if text != "Arsenal edged Chelsea 2-1." {
		t.Fatalf("text = %q", text)
	}

	if gotKey != "test-key" {
		t.Fatalf("x-api-key = %q", gotKey)
	}
	if gotVersion != apiVersion {
		t.Fatalf("anthropic-version = %q", gotVersion)
	}
	if gotBody.Model != defaultModel || gotBody.MaxTokens != defaultMaxTokens {
		t.Fatalf("request = %+v", gotBody)
	}
	if gotBody.Temperature != defaultTemperature {
		t.Fatalf("temperature = %v", gotBody.Temperature)
	}
	if len(gotBody.Messages) != 1 || !strings.Contains(gotBody.Messages[0].Content, "Arsenal") {
		t.Fatalf("messages = %+v", gotBody.Messages)
	}
	if gotBody.System == "" {
		t.Fatal("system prompt missing")
	}
}

func TestClient_GenerateSummary_NonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "k", Logger: logging.NewNop()})

	if _, err := client.GenerateSummary(context.Background(), sampleRecords()); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestClient_GenerateSummary_RequiresKeyAndRecords(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{Logger: logging.NewNop()})
	if _, err := client.GenerateSummary(context.Background(), sampleRecords()); err == nil {
		t.Fatal("expected error without api key")
	}

	client = NewClient(ClientConfig{APIKey: "k", Logger: logging.NewNop()})
	if _, err := client.GenerateSummary(context.Background(), nil); err == nil {
		t.Fatal("expected error without records")
	}
}
