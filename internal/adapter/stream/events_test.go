package stream

import (
	"strings"
	"testing"
)

func TestParseFrameSingleEvent(t *testing.T) {
	frame := []byte(`{"proposal_id":"12","event_type":"proposal_created","account_id":"gov.testnet","data":{"title":"Grants Q3","description":"fund grants","proposer_id":"alice.testnet","budget":"1000"}}`)

	events := ParseFrame(frame, "gov.testnet")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.ProposalID != "12" || ev.Type != "proposal_created" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Proposal == nil || ev.Proposal.Proposer != "alice.testnet" || ev.Proposal.Title != "Grants Q3" {
		t.Fatalf("unexpected proposal payload: %+v", ev.Proposal)
	}
}

func TestParseFrameArrayFraming(t *testing.T) {
	frame := []byte(`[
		{"proposal_id":1,"event_type":"proposal_created","account_id":"gov.testnet"},
		{"proposal_id":2,"event_type":"proposal_approved","account_id":"gov.testnet"}
	]`)

	events := ParseFrame(frame, "gov.testnet")
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ProposalID != "1" || events[1].ProposalID != "2" {
		t.Fatalf("numeric ids must be normalized to strings: %+v", events)
	}
}

func TestParseFrameDropsForeignAndIncomplete(t *testing.T) {
	frame := []byte(`[
		{"proposal_id":"1","event_type":"proposal_created","account_id":"other.testnet"},
		{"event_type":"proposal_created","account_id":"gov.testnet"},
		{"proposal_id":"3","account_id":"gov.testnet"},
		{"proposal_id":"4","event_type":"proposal_created","account_id":"gov.testnet"}
	]`)

	events := ParseFrame(frame, "gov.testnet")
	if len(events) != 1 || events[0].ProposalID != "4" {
		t.Fatalf("expected only the complete matching event, got %+v", events)
	}
}

func TestParseFrameGarbage(t *testing.T) {
	for _, frame := range []string{"", "   ", "not json", `"just a string"`} {
		if events := ParseFrame([]byte(frame), "gov.testnet"); len(events) != 0 {
			t.Fatalf("frame %q: expected no events, got %+v", frame, events)
		}
	}
}

func TestSubscribeFrame(t *testing.T) {
	frame := string(subscribeFrame("gov.testnet"))
	for _, want := range []string{`"action":"subscribe"`, `"account_id":"gov.testnet"`, `"event_category":"proposal"`} {
		if !strings.Contains(frame, want) {
			t.Fatalf("subscribe frame missing %s: %s", want, frame)
		}
	}
}
