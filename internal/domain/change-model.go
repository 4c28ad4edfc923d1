package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChangeAction string

const (
	ChangeActionCreate ChangeAction = "CREATE"
	ChangeActionUpdate ChangeAction = "UPDATE"
	ChangeActionDelete ChangeAction = "DELETE"
)

func (a ChangeAction) Valid() bool {
	switch a {
	case ChangeActionCreate, ChangeActionUpdate, ChangeActionDelete:
		return true
	}
	return false
}

// ParseChangeAction normalises a filter value. ok is false for anything outside the enum.
func ParseChangeAction(s string) (ChangeAction, bool) {
	a := ChangeAction(strings.ToUpper(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", false
	}
	return a, true
}

// ChangeRecord is one immutable entry of the rote change log.
// NoteID is cleared when the note row is deleted; the record itself stays.
type ChangeRecord struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OriginID  uuid.UUID    `gorm:"type:uuid;not null;index" json:"originid"`
	NoteID    *uuid.UUID   `gorm:"type:uuid;index" json:"roteid"`
	Action    ChangeAction `gorm:"type:varchar(10);not null;index" json:"action"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_rote_changes_user_created,priority:1" json:"userid"`
	CreatedAt time.Time    `gorm:"not null;index:idx_rote_changes_user_created,priority:2" json:"createdAt"`

	Rote *Rote `gorm:"foreignKey:NoteID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"rote,omitempty"`
}

func (ChangeRecord) TableName() string {
	return "rote_changes"
}

// ChangeDispatchCursor is the resume point of an outbox dispatcher: the position
// (created_at, id) of the last record it published.
type ChangeDispatchCursor struct {
	Name          string    `gorm:"type:varchar(64);primaryKey" json:"name"`
	LastCreatedAt time.Time `gorm:"not null" json:"last_created_at"`
	LastID        uuid.UUID `gorm:"type:uuid" json:"last_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (ChangeDispatchCursor) TableName() string {
	return "change_dispatch_cursors"
}
