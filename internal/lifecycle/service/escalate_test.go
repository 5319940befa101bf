package service

import (
	"context"
	"strings"
	"testing"

	"leadbot_backend/internal/lifecycle/domain"
	"leadbot_backend/internal/lifecycle/repository"
	"leadbot_backend/internal/slack"
	"leadbot_backend/platform/apperr"
)

func TestHandleEscalate(t *testing.T) {
	svc, store, msgr := newTestService(t)
	ref := seedLead(t, svc, msgr)

	msgr.DisplayNames["U-ALICE"] = "Alice"
	msgr.DisplayNames["U-BOB"] = "Bob"
	msgr.Threads[ref] = []slack.Message{
		{User: "U-BOT", Text: leadMessage, TS: "1700000000.000100"},
		{User: "U-ALICE", Text: "calling them now", TS: "1700000100.000200"},
		{User: "U-BOB", Text: "they want a quote", TS: "1700000200.000300"},
	}

	if err := svc.HandleEscalate(context.Background(), ref, "U-ALICE"); err != nil {
		t.Fatalf("HandleEscalate: %v", err)
	}

	if len(msgr.CreatedChannels) != 1 {
		t.Fatalf("created %d channels, want 1", len(msgr.CreatedChannels))
	}
	name := msgr.CreatedChannels[0]
	if !strings.HasPrefix(name, "deal-doe-") {
		t.Errorf("channel name = %q, want deal-doe-<tail>", name)
	}
	if len(name) > 21 {
		t.Errorf("channel name %q exceeds 21 chars", name)
	}

	channelID := "C-" + name
	invites := msgr.Invites[channelID]
	if len(invites) != 2 || invites[0] != "U-ALICE" || invites[1] != "U-MANAGER" {
		t.Errorf("invites = %v, want escalator and sales manager group", invites)
	}

	lead, err := store.GetByID(context.Background(), "abc-1234")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lead.Status != domain.StageEscalated {
		t.Errorf("status = %q, want %q", lead.Status, domain.StageEscalated)
	}
	if lead.EscalatedBy == nil || *lead.EscalatedBy != "U-ALICE" {
		t.Errorf("escalated_by = %v, want U-ALICE", lead.EscalatedBy)
	}
	if lead.EscalatedChannel == nil || *lead.EscalatedChannel != channelID {
		t.Errorf("escalated_channel = %v, want %q", lead.EscalatedChannel, channelID)
	}
	if lead.EscalatedAt == nil {
		t.Error("escalated_at not stamped")
	}
	if len(store.StageChanges()) != 0 {
		t.Error("escalation is a flag, not a stage transition, and must not append audit records")
	}

	var transcript, crossRef bool
	for _, msg := range msgr.Posted {
		if msg.ChannelID == channelID && strings.Contains(msg.Text, "Lead Thread Summary") {
			transcript = true
			if !strings.Contains(msg.Text, "*Alice*") || !strings.Contains(msg.Text, "they want a quote") {
				t.Errorf("transcript missing speakers or text: %q", msg.Text)
			}
		}
		if msg.ThreadTS == ref.ThreadTS && strings.Contains(msg.Text, "escalated by <@U-ALICE>") {
			crossRef = true
			if !strings.Contains(msg.Text, "<#"+channelID+">") {
				t.Errorf("cross-reference missing channel link: %q", msg.Text)
			}
		}
	}
	if !transcript {
		t.Error("no transcript posted to the escalation channel")
	}
	if !crossRef {
		t.Error("no cross-reference posted back to the lead thread")
	}
}

func TestHandleEscalateRejectsSecondEscalation(t *testing.T) {
	svc, _, msgr := newTestService(t)
	ref := seedLead(t, svc, msgr)

	if err := svc.HandleEscalate(context.Background(), ref, "U-ALICE"); err != nil {
		t.Fatalf("first escalation: %v", err)
	}

	err := svc.HandleEscalate(context.Background(), ref, "U-BOB")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
	if len(msgr.CreatedChannels) != 1 {
		t.Errorf("created %d channels, want 1", len(msgr.CreatedChannels))
	}
}

func TestHandleEscalateRejectsClosedLead(t *testing.T) {
	svc, store, msgr := newTestService(t)
	ref := seedLead(t, svc, msgr)

	status := domain.StageLost
	if err := store.Update(context.Background(), "abc-1234", repository.UpdateParams{Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	err := svc.HandleEscalate(context.Background(), ref, "U-ALICE")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestHandleEscalateUnknownLead(t *testing.T) {
	svc, _, msgr := newTestService(t)

	ref := slack.ThreadRef{ChannelID: "C-LEADS", ThreadTS: "1700000000.000700"}
	msgr.SeedParent(ref, slack.Message{User: "U-BOT", Text: `{"lead_id": "ghost-9999"}`})

	err := svc.HandleEscalate(context.Background(), ref, "U-ALICE")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
	if len(msgr.CreatedChannels) != 0 {
		t.Errorf("no channel should be created for an unknown lead")
	}
}

func TestHandleEscalateSpaceCreationFailureAborts(t *testing.T) {
	svc, store, msgr := newTestService(t)
	ref := seedLead(t, svc, msgr)
	msgr.FailCreate = true

	err := svc.HandleEscalate(context.Background(), ref, "U-ALICE")
	if apperr.GetKind(err) != apperr.KindUpstream {
		t.Fatalf("err = %v, want upstream error", err)
	}

	lead, err := store.GetByID(context.Background(), "abc-1234")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if lead.Status == domain.StageEscalated {
		t.Error("failed escalation must not change lead status")
	}
	if lead.EscalatedChannel != nil {
		t.Error("failed escalation must not stamp a channel")
	}
}

func TestHandleEscalateInviteFailureDegrades(t *testing.T) {
	svc, store, msgr := newTestService(t)
	ref := seedLead(t, svc, msgr)
	msgr.FailInvite["U-MANAGER"] = true

	if err := svc.HandleEscalate(context.Background(), ref, "U-ALICE"); err != nil {
		t.Fatalf("HandleEscalate: %v", err)
	}

	lead, _ := store.GetByID(context.Background(), "abc-1234")
	if lead.Status != domain.StageEscalated {
		t.Errorf("status = %q, escalation should still complete", lead.Status)
	}

	var fallback bool
	for _, msg := range msgr.Posted {
		if strings.Contains(msg.Text, "Could not invite U-MANAGER") {
			fallback = true
		}
	}
	if !fallback {
		t.Error("expected a manual-invite fallback note in the channel")
	}
}

func TestEscalationChannelName(t *testing.T) {
	cases := []struct {
		name string
		lead repository.Lead
		want string
	}{
		{
			name: "sanitized surname with id tail",
			lead: repository.Lead{LeadID: "abc-1234", LastName: "O'Brien"},
			want: "deal-obrien-1234",
		},
		{
			name: "surname from full name",
			lead: repository.Lead{LeadID: "xyz-5678", Name: "Jane van Dijk"},
			want: "deal-dijk-5678",
		},
		{
			name: "missing name entirely",
			lead: repository.Lead{LeadID: "77"},
			want: "deal-unknown-77",
		},
		{
			name: "long surname truncated",
			lead: repository.Lead{LeadID: "abc-1234", LastName: "Wolfeschlegelstein"},
			want: "deal-wolfeschlegelste",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := escalationChannelName(tc.lead)
			if got != tc.want {
				t.Errorf("escalationChannelName() = %q, want %q", got, tc.want)
			}
			if len(got) > 21 {
				t.Errorf("name %q exceeds 21 chars", got)
			}
		})
	}
}

func TestHandleEscalateOutsideThread(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.HandleEscalate(context.Background(), slack.ThreadRef{ChannelID: "C-LEADS"}, "U-ALICE")
	if apperr.GetKind(err) != apperr.KindInvalidContext {
		t.Fatalf("err = %v, want invalid context", err)
	}
}
