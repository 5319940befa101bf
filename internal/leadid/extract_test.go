package leadid

import "testing"

func TestExtractFromValidJSON(t *testing.T) {
	id, ok := Extract(`{"lead_id":"abc-1","first_name":"Ada"}`)
	if !ok {
		t.Fatal("expected extraction from valid JSON to succeed")
	}
	if id != "abc-1" {
		t.Fatalf("expected abc-1, got %s", id)
	}
}

func TestExtractQuotedFallback(t *testing.T) {
	id, ok := Extract(`forwarded message: "lead_id": "abc-1" plus trailing noise`)
	if !ok {
		t.Fatal("expected quoted fallback to succeed on broken JSON")
	}
	if id != "abc-1" {
		t.Fatalf("expected abc-1, got %s", id)
	}
}

func TestExtractBareValueFallback(t *testing.T) {
	id, ok := Extract(`noise "lead_id": abc-1 noise`)
	if !ok {
		t.Fatal("expected bare-value fallback to succeed")
	}
	if id != "abc-1" {
		t.Fatalf("expected abc-1, got %s", id)
	}
}

func TestExtractBareValueKeepsHyphenatedID(t *testing.T) {
	// Quote-stripped forwards must still yield the full hyphenated identifier,
	// not a prefix truncated at the first hyphen.
	id, ok := Extract(`lead follow-up "lead_id": abc-1234, owner unknown`)
	if !ok {
		t.Fatal("expected bare-value fallback to succeed")
	}
	if id != "abc-1234" {
		t.Fatalf("expected abc-1234, got %s", id)
	}
}

func TestExtractPrefersStrictParse(t *testing.T) {
	// The strict parse must win over pattern matching when both would apply.
	id, ok := Extract(`{"note":"see \"lead_id\": old-9","lead_id":"new-1"}`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if id != "new-1" {
		t.Fatalf("expected strict parse result new-1, got %s", id)
	}
}

func TestExtractNotFound(t *testing.T) {
	cases := []string{
		"",
		"no id here",
		`{"first_name":"Ada"}`,
		`{"lead_id":""}`,
	}
	for _, text := range cases {
		if id, ok := Extract(text); ok {
			t.Fatalf("expected no extraction for %q, got %s", text, id)
		}
	}
}

func TestContains(t *testing.T) {
	if !Contains(`{"lead_id":"x"}`) {
		t.Fatal("expected marker to be detected")
	}
	if Contains("just a chat message") {
		t.Fatal("expected no marker in plain chat")
	}
}
