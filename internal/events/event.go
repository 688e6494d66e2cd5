// AngelaMos | 2026
// event.go

// Package events publishes moderation state changes to the message broker
// so downstream consumers (audit log, notifications) do not have to poll the
// database.
package events

import (
	"context"
	"time"
)

type Type string

const (
	ReviewHidden     Type = "review.hidden"
	ReviewUnhidden   Type = "review.unhidden"
	ReviewFlagsReset Type = "review.flags_reset"
	ReviewRemoved    Type = "review.removed"
	UserRoleGranted  Type = "user.role_granted"
	UserBanned       Type = "user.banned"
	AppealAccepted   Type = "appeal.accepted"
	AppealDenied     Type = "appeal.denied"
	UpgradeApproved  Type = "upgrade.approved"
	UpgradeDeclined  Type = "upgrade.declined"
	UpgradePurged    Type = "upgrade.purged"
)

// Event describes one state change. SubjectID is the id of the review, user
// or upgrade request the event is about; ActorID is the moderator, or zero
// for scheduled and CLI actions.
type Event struct {
	Type       Type           `json:"type"`
	SubjectID  int64          `json:"subject_id"`
	ActorID    int64          `json:"actor_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func New(t Type, subjectID, actorID int64, data map[string]any) Event {
	return Event{
		Type:       t,
		SubjectID:  subjectID,
		ActorID:    actorID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event. Used when the queue is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}
