package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lepinkainen/cricket-forge/pkg/api"
	"github.com/lepinkainen/cricket-forge/pkg/cache"
	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

var testMatch = cricket.MatchRecord{
	ID:        "cricbuzz-112233",
	Name:      "India vs Australia",
	MatchType: cricket.ODI,
	Venue:     "Adelaide Oval",
	Teams:     []string{"India", "Australia"},
}

func fastRetry() *api.RetryPolicy {
	policy := api.InferenceRetryPolicy()
	policy.InitialBackoff = time.Millisecond
	policy.MaxBackoff = 5 * time.Millisecond
	return policy
}

// newModelServer answers with statuses in order, then with generated.
func newModelServer(t *testing.T, generated string, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/models/"+DefaultModel {
			t.Errorf("path = %s", r.URL.Path)
		}

		var req inferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request body: %v", err)
		}
		if !strings.Contains(req.Inputs, "Teams: India vs Australia") || req.Parameters.MaxNewTokens != 200 {
			t.Errorf("request = %+v", req)
		}

		if n <= len(statuses) {
			http.Error(w, "model loading", statuses[n-1])
			return
		}
		_ = json.NewEncoder(w).Encode([]generation{{GeneratedText: generated}})
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestPredict_ParsesModelOutput(t *testing.T) {
	generated := "Sure! Here is my prediction:\n{\n  \"winner\": \"India\",\n  \"probability\": 140,\n  \"reasoning\": \"Stronger batting depth\"\n}\nGood luck."
	ts, calls := newModelServer(t, generated, http.StatusServiceUnavailable)

	predictions := cache.NewLRU[cricket.Prediction](DefaultCacheSize, DefaultCacheTTL)
	p := New(Config{Endpoint: ts.URL + "/models", Token: "test-token", Retry: fastRetry()}, predictions)

	got, err := p.Predict(context.Background(), testMatch)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	expected := cricket.Prediction{MatchID: testMatch.ID, Winner: "India", Probability: 100, Reasoning: "Stronger batting depth"}
	if got != expected {
		t.Errorf("Predict() = %+v, expected %+v", got, expected)
	}
	if calls.Load() != 2 {
		t.Errorf("API called %d times, expected one retry after 503", calls.Load())
	}

	if _, err := p.Predict(context.Background(), testMatch); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("second prediction was not served from the cache")
	}
}

func TestPredict_FallsBackToMock(t *testing.T) {
	ts, calls := newModelServer(t, "", http.StatusInternalServerError)

	predictions := cache.NewLRU[cricket.Prediction](DefaultCacheSize, DefaultCacheTTL)
	p := New(Config{Endpoint: ts.URL + "/models", Token: "test-token", Retry: fastRetry()}, predictions)
	p.intn = func(n int) int { return n - 1 }

	got, err := p.Predict(context.Background(), testMatch)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if !got.Mock || got.Winner != "Australia" || got.Probability != 84 {
		t.Errorf("mock = %+v", got)
	}
	if calls.Load() != 1 {
		t.Errorf("500 was retried: %d calls", calls.Load())
	}
	if predictions.Len() != 0 {
		t.Error("mock prediction was cached")
	}
}

func TestPredict_WithoutToken(t *testing.T) {
	p := New(Config{}, nil)
	p.intn = func(int) int { return 0 }

	got, err := p.Predict(context.Background(), cricket.MatchRecord{ID: "m1"})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Mock || got.Winner != "Team A" || got.Probability != 55 {
		t.Errorf("Predict() = %+v", got)
	}
}

func TestPredict_InvalidMatch(t *testing.T) {
	p := New(Config{Token: "test-token"}, nil)
	if _, err := p.Predict(context.Background(), cricket.MatchRecord{Name: "India vs Australia"}); !errors.Is(err, ErrInvalidMatch) {
		t.Errorf("error = %v, expected ErrInvalidMatch", err)
	}
}

func TestPredict_UnparseableOutput(t *testing.T) {
	ts, _ := newModelServer(t, "I cannot predict sporting events.")
	p := New(Config{Endpoint: ts.URL + "/models", Token: "test-token", Retry: fastRetry()}, nil)

	if _, err := p.Predict(context.Background(), testMatch); !errors.Is(err, ErrNoPrediction) {
		t.Errorf("error = %v, expected ErrNoPrediction", err)
	}
}

func TestParseGenerated(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		winner      string
		probability int
		wantErr     bool
	}{
		{"plain", `{"winner":"England","probability":62,"reasoning":"Home"}`, "England", 62, false},
		{"negative clamps", `{"winner":"Pakistan","probability":-5}`, "Pakistan", 0, false},
		{"fraction rounds", `Answer: {"winner":"India","probability":71.6}`, "India", 72, false},
		{"no json", "no idea", "", 0, true},
		{"broken json", `{"winner": "India",`, "", 0, true},
		{"missing winner", `{"probability":50}`, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGenerated(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGenerated() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Winner != tt.winner || got.Probability != tt.probability {
				t.Errorf("ParseGenerated() = %+v", got)
			}
		})
	}
}
