package domain

import (
	"time"

	"github.com/google/uuid"
)

type Rote struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"authorid"`
	Title     string     `gorm:"type:text;not null;default:''" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Type      string     `gorm:"type:varchar(20);not null;default:'rote'" json:"type"`
	Tags      []string   `gorm:"serializer:json" json:"tags"`
	State     string     `gorm:"type:varchar(20);not null;default:'private'" json:"state"`
	Archived  bool       `gorm:"not null;default:false" json:"archived"`
	Pin       bool       `gorm:"not null;default:false" json:"pin"`
	Editor    string     `gorm:"type:varchar(20);not null;default:'normal'" json:"editor"`
	ArticleID *uuid.UUID `gorm:"type:uuid" json:"articleId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	Attachments []Attachment `gorm:"foreignKey:RoteID;constraint:OnDelete:SET NULL" json:"attachments,omitempty"`
	Reactions   []Reaction   `gorm:"foreignKey:RoteID;constraint:OnDelete:CASCADE" json:"reactions,omitempty"`
}

func (Rote) TableName() string {
	return "rotes"
}

// RoteSnapshotColumns is the bounded note projection joined into change query results.
var RoteSnapshotColumns = []string{
	"id", "title", "content", "type", "tags", "state", "archived",
	"pin", "editor", "article_id", "created_at", "updated_at",
}

type Attachment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"userid"`
	RoteID    *uuid.UUID `gorm:"type:uuid;index" json:"roteid"`
	URL       string     `gorm:"type:text;not null" json:"url"`
	SortIndex int        `gorm:"not null;default:0" json:"sortIndex"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (Attachment) TableName() string {
	return "attachments"
}

type Reaction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoteID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uidx_reactions_rote_user_type,priority:1" json:"roteid"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uidx_reactions_rote_user_type,priority:2" json:"userid"`
	Type      string    `gorm:"type:varchar(32);not null;uniqueIndex:uidx_reactions_rote_user_type,priority:3" json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Reaction) TableName() string {
	return "reactions"
}
