package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupColors is the fixed palette offered when creating a group. The first
// entry is the default.
var GroupColors = []string{"blue", "green", "purple", "orange", "red", "yellow", "pink", "gray"}

func ValidGroupColor(color string) bool {
	for _, c := range GroupColors {
		if c == color {
			return true
		}
	}
	return false
}

type Group struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"size:500" json:"description"`
	Color       string     `gorm:"size:16;not null" json:"color"`
	CardCount   int        `gorm:"not null;default:0" json:"card_count"`
	LastUsedAt  *time.Time `json:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Group) TableName() string { return "card_groups" }

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.Color == "" {
		g.Color = GroupColors[0]
	}
	return nil
}

// GroupCard is one membership row. The composite primary key makes a
// (group, card) pair unique.
type GroupCard struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	CardID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"card_id"`
	Position int       `gorm:"not null;index" json:"position"`
	AddedBy  uuid.UUID `gorm:"type:uuid" json:"added_by"`
	AddedAt  time.Time `json:"added_at"`

	Group *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Card  *Card  `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE" json:"card,omitempty"`
}

func (GroupCard) TableName() string { return "group_cards" }
