package litellm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shadegov/sentinel/internal/domain/proposal"
)

const systemPrompt = `You screen governance proposals for a NEAR voting contract.
Evaluate the proposal for legitimacy, clarity, and benefit to the ecosystem.
Reject spam, scams, vague asks, and proposals with unjustified budgets.
Respond with a single JSON object and nothing else:
{"decision": "approve" | "reject", "reasons": ["<short reason>", ...]}`

// Judge renders screening verdicts through the chat-completions client.
type Judge struct {
	client *Client
	model  string
}

// NewJudge creates a judgment provider using the given client and model.
func NewJudge(client *Client, model string) *Judge {
	return &Judge{client: client, model: model}
}

// Judge evaluates a proposal's text fields and returns a verdict. Transport
// and auth failures are returned as errors; unparseable model output is not
// an error and resolves to a reject verdict.
func (j *Judge) Judge(ctx context.Context, p *proposal.Proposal) (proposal.Verdict, error) {
	resp, err := j.client.ChatCompletion(ctx, ChatCompletionRequest{
		Model: j.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(p)},
		},
	})
	if err != nil {
		return proposal.Verdict{}, err
	}
	return ParseVerdict(resp.Content), nil
}

func userPrompt(p *proposal.Proposal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposal %s\n", p.ID)
	fmt.Fprintf(&b, "Proposer: %s\n", p.Proposer)
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	if p.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", p.Budget)
	}
	if p.Link != "" {
		fmt.Fprintf(&b, "Link: %s\n", p.Link)
	}
	return b.String()
}

// ParseVerdict extracts a structured verdict from a model response. It
// first looks for an embedded JSON object, then falls back to a keyword
// heuristic, and finally defaults to reject.
func ParseVerdict(text string) proposal.Verdict {
	if v, ok := extractJSON(text); ok {
		return v
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "reject") {
		return proposal.Verdict{
			Decision: proposal.DecisionReject,
			Reasons:  []string{"model response indicated rejection"},
		}
	}
	if strings.Contains(lower, "approve") {
		return proposal.Verdict{
			Decision: proposal.DecisionApprove,
			Reasons:  []string{"model response indicated approval"},
		}
	}

	return proposal.Verdict{
		Decision: proposal.DecisionReject,
		Reasons:  []string{"could not parse judgment response"},
	}
}

// extractJSON finds the outermost JSON object in free text and decodes it
// as a verdict. Models frequently wrap the object in prose or code fences.
func extractJSON(text string) (proposal.Verdict, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return proposal.Verdict{}, false
	}

	var v proposal.Verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return proposal.Verdict{}, false
	}

	v.Decision = strings.ToLower(strings.TrimSpace(v.Decision))
	if v.Decision != proposal.DecisionApprove && v.Decision != proposal.DecisionReject {
		return proposal.Verdict{}, false
	}
	if len(v.Reasons) == 0 {
		v.Reasons = []string{"no rationale provided"}
	}
	return v, true
}
