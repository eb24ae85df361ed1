package litellm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

func TestParseVerdictStructured(t *testing.T) {
	v := ParseVerdict(`{"decision":"reject","reasons":["spam"]}`)
	if v.Approved() {
		t.Error("expected reject")
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "spam" {
		t.Errorf("unexpected reasons: %v", v.Reasons)
	}
}

func TestParseVerdictEmbeddedInProse(t *testing.T) {
	text := "Here is my assessment:\n```json\n{\"decision\": \"Approve\", \"reasons\": [\"clear budget\", \"known team\"]}\n```\nLet me know."
	v := ParseVerdict(text)
	if !v.Approved() {
		t.Errorf("expected approve, got %q", v.Decision)
	}
	if len(v.Reasons) != 2 {
		t.Errorf("expected 2 reasons, got %v", v.Reasons)
	}
}

func TestParseVerdictStructuredNoReasons(t *testing.T) {
	v := ParseVerdict(`{"decision":"approve"}`)
	if !v.Approved() {
		t.Error("expected approve")
	}
	if len(v.Reasons) == 0 {
		t.Error("expected a placeholder reason")
	}
}

func TestParseVerdictKeywordFallback(t *testing.T) {
	v := ParseVerdict("I would approve this proposal, it looks solid.")
	if !v.Approved() {
		t.Error("expected approve from keyword heuristic")
	}

	v = ParseVerdict("This should be rejected as spam.")
	if v.Approved() {
		t.Error("expected reject from keyword heuristic")
	}
}

func TestParseVerdictUnparseableDefaultsToReject(t *testing.T) {
	v := ParseVerdict("the weather is nice today")
	if v.Approved() {
		t.Error("expected reject for unparseable response")
	}
	if len(v.Reasons) != 1 || v.Reasons[0] != "could not parse judgment response" {
		t.Errorf("unexpected reasons: %v", v.Reasons)
	}
}

func TestParseVerdictUnknownDecisionFallsThrough(t *testing.T) {
	// A JSON object with an unknown decision must not be trusted; the
	// keyword heuristic applies to the surrounding text instead.
	v := ParseVerdict(`{"decision":"maybe","reasons":["unsure"]}`)
	if v.Approved() {
		t.Error("expected reject")
	}
}

func TestJudgeEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Messages[0].Role != "system" {
			t.Fatalf("expected system prompt first, got %q", req.Messages[0].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "m",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": `{"decision":"reject","reasons":["vague ask"]}`}},
			},
		})
	}))
	defer srv.Close()

	j := NewJudge(NewClient(srv.URL, ""), "m")
	v, err := j.Judge(context.Background(), &proposal.Proposal{
		ID:       "3",
		Title:    "Send me money",
		Proposer: "someone.test",
	})
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if v.Approved() {
		t.Error("expected reject")
	}
	if v.Reasons[0] != "vague ask" {
		t.Errorf("unexpected reasons: %v", v.Reasons)
	}
}

func TestJudgeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	j := NewJudge(NewClient(srv.URL, ""), "m")
	if _, err := j.Judge(context.Background(), &proposal.Proposal{ID: "4"}); err == nil {
		t.Fatal("expected transport error")
	}
}
