package dto

import (
	"time"

	"github.com/SundayYogurt/rote_service/internal/domain"
	"github.com/google/uuid"
)

// PageQuery is the skip/limit pair every change query accepts.
type PageQuery struct {
	Skip  int `query:"skip" validate:"gte=0"`
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

type UserChangesQuery struct {
	PageQuery
	Action string `query:"action"`
}

type ChangesAfterQuery struct {
	PageQuery
	Timestamp string `query:"timestamp" validate:"required"`
	Action    string `query:"action"`
}

// RoteSnapshot is the current state of the note a change refers to, not its state at event time.
type RoteSnapshot struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Type      string     `json:"type"`
	Tags      []string   `json:"tags"`
	State     string     `json:"state"`
	Archived  bool       `json:"archived"`
	Pin       bool       `json:"pin"`
	Editor    string     `json:"editor"`
	ArticleID *uuid.UUID `json:"articleId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type ChangeResponse struct {
	ID        uuid.UUID           `json:"id"`
	OriginID  uuid.UUID           `json:"originid"`
	NoteID    *uuid.UUID          `json:"roteid"`
	Action    domain.ChangeAction `json:"action"`
	UserID    uuid.UUID           `json:"userid"`
	CreatedAt time.Time           `json:"createdAt"`
	Rote      *RoteSnapshot       `json:"rote"`
}

// ChangeEvent is the payload the outbox dispatcher publishes for each change record.
type ChangeEvent struct {
	ID        uuid.UUID           `json:"id"`
	OriginID  uuid.UUID           `json:"originid"`
	NoteID    *uuid.UUID          `json:"roteid"`
	Action    domain.ChangeAction `json:"action"`
	UserID    uuid.UUID           `json:"userid"`
	CreatedAt time.Time           `json:"createdAt"`
}

func NewChangeResponse(rec domain.ChangeRecord) ChangeResponse {
	out := ChangeResponse{
		ID:        rec.ID,
		OriginID:  rec.OriginID,
		NoteID:    rec.NoteID,
		Action:    rec.Action,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Rote != nil {
		r := rec.Rote
		tags := r.Tags
		if tags == nil {
			tags = []string{}
		}
		out.Rote = &RoteSnapshot{
			ID:        r.ID,
			Title:     r.Title,
			Content:   r.Content,
			Type:      r.Type,
			Tags:      tags,
			State:     r.State,
			Archived:  r.Archived,
			Pin:       r.Pin,
			Editor:    r.Editor,
			ArticleID: r.ArticleID,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return out
}

func NewChangeEvent(rec domain.ChangeRecord) ChangeEvent {
	return ChangeEvent{
		ID:        rec.ID,
		OriginID:  rec.OriginID,
		NoteID:    rec.NoteID,
		Action:    rec.Action,
		UserID:    rec.UserID,
		CreatedAt: rec.CreatedAt,
	}
}
