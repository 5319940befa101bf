// Package domain provides the core business rules for the lead lifecycle:
// the stage set, the marker mapping, and the transition rules. It performs
// no I/O.
package domain

import (
	"fmt"
	"strings"

	"leadbot_backend/platform/apperr"
)

const (
	StageNew       = "New"
	StageClaimed   = "Claimed"
	StageContacted = "Contacted"
	StageQualified = "Qualified"
	StageWon       = "Won"
	StageLost      = "Lost"
	StageEscalated = "Escalated"
)

// stageMarkers maps user-settable stages to the emoji marker shown on the
// lead's parent message. Ordering matters for user-facing listings.
var stageMarkers = []struct {
	Stage  string
	Marker string
}{
	{StageContacted, "telephone"},
	{StageQualified, "mag"},
	{StageWon, "white_check_mark"},
	{StageLost, "x"},
}

const (
	// MarkerNew is added to a lead message at ingestion.
	MarkerNew = "new"
	// MarkerClaimed acknowledges a claim on the parent message.
	MarkerClaimed = "handshake"
)

// terminalStages are stages where the lead is closed and no further
// claim or escalation should occur. Records persist for audit.
var terminalStages = map[string]bool{
	StageWon:  true,
	StageLost: true,
}

// IsTerminal returns true if the stage closes the lead.
func IsTerminal(stage string) bool {
	return terminalStages[stage]
}

// ParseStage matches text case-insensitively against the user-settable stage
// set (Contacted, Qualified, Won, Lost). It returns the canonical stage name.
func ParseStage(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	for _, sm := range stageMarkers {
		if strings.EqualFold(sm.Stage, trimmed) {
			return sm.Stage, nil
		}
	}
	return "", apperr.Validation(fmt.Sprintf("invalid stage %q, valid stages are: %s", trimmed, strings.Join(SettableStages(), ", ")))
}

// Marker returns the emoji marker for a user-settable stage.
func Marker(stage string) (string, bool) {
	for _, sm := range stageMarkers {
		if sm.Stage == stage {
			return sm.Marker, true
		}
	}
	return "", false
}

// StageForMarker resolves an emoji marker back to its stage. Unrecognized
// markers return ok=false; most reactions are unrelated to leads.
func StageForMarker(marker string) (string, bool) {
	for _, sm := range stageMarkers {
		if sm.Marker == marker {
			return sm.Stage, true
		}
	}
	return "", false
}

// SettableStages lists the stages a user may set directly, in display order.
func SettableStages() []string {
	stages := make([]string, 0, len(stageMarkers))
	for _, sm := range stageMarkers {
		stages = append(stages, sm.Stage)
	}
	return stages
}

// StageOptions renders the valid stages with their markers for an
// ephemeral help response.
func StageOptions() string {
	var b strings.Builder
	for _, sm := range stageMarkers {
		fmt.Fprintf(&b, "• %s :%s:\n", sm.Stage, sm.Marker)
	}
	return strings.TrimRight(b.String(), "\n")
}

// CanClaim checks that a lead in the given stage may be claimed.
// Re-claiming is allowed from any non-terminal stage; the last claimer wins.
func CanClaim(current string) error {
	if IsTerminal(current) {
		return apperr.Conflict(fmt.Sprintf("lead is already closed as %s and cannot be claimed", current))
	}
	return nil
}

// CanEscalate checks that a lead in the given stage may be escalated.
func CanEscalate(current string) error {
	if IsTerminal(current) {
		return apperr.Conflict(fmt.Sprintf("lead is already closed as %s and cannot be escalated", current))
	}
	return nil
}
