package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Bank scopes cards by domain; each bank is a top-level section of the workspace.
type Bank string

const (
	BankStrategy     Bank = "strategy"
	BankIntelligence Bank = "intelligence"
	BankDevelopment  Bank = "development"
	BankOrganisation Bank = "organisation"
)

func (b Bank) Valid() bool {
	switch b {
	case BankStrategy, BankIntelligence, BankDevelopment, BankOrganisation:
		return true
	}
	return false
}

type CardStatus string

const (
	StatusActive   CardStatus = "active"
	StatusSaved    CardStatus = "saved"
	StatusArchived CardStatus = "archived"
)

func (s CardStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSaved, StatusArchived:
		return true
	}
	return false
}

// Level is shared by priority and confidence. The empty level means unset.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

func (l Level) Valid() bool {
	switch l {
	case "", LevelHigh, LevelMedium, LevelLow:
		return true
	}
	return false
}

// Rank orders levels High > Medium > Low > unset.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	}
	return 0
}

// ParseLevel accepts any casing ("high", "HIGH") and returns the canonical form.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", true
	case "high":
		return LevelHigh, true
	case "medium":
		return LevelMedium, true
	case "low":
		return LevelLow, true
	}
	return "", false
}

type RelationKind string

const (
	RelationSupports      RelationKind = "supports"
	RelationSupportedBy   RelationKind = "supported-by"
	RelationRelatesTo     RelationKind = "relates-to"
	RelationConflictsWith RelationKind = "conflicts-with"
)

func (k RelationKind) Valid() bool {
	switch k {
	case RelationSupports, RelationSupportedBy, RelationRelatesTo, RelationConflictsWith:
		return true
	}
	return false
}

// Relationship links a card to another card. TargetTitle is a snapshot taken
// when the link was made.
type Relationship struct {
	TargetID    uuid.UUID    `json:"target_id"`
	TargetTitle string       `json:"target_title"`
	Kind        RelationKind `json:"kind"`
}

type Card struct {
	ID            uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID                         `gorm:"type:uuid;not null;index" json:"user_id"`
	Bank          Bank                              `gorm:"size:32;not null;index" json:"bank"`
	CardType      string                            `gorm:"size:64;not null" json:"card_type"`
	Title         string                            `gorm:"not null" json:"title"`
	Description   string                            `json:"description"`
	CardData      datatypes.JSON                    `json:"card_data"`
	Status        CardStatus                        `gorm:"size:16;not null;default:active;index" json:"status"`
	Priority      Level                             `gorm:"size:8" json:"priority,omitempty"`
	Confidence    Level                             `gorm:"size:8" json:"confidence,omitempty"`
	Tags          datatypes.JSONSlice[string]       `json:"tags"`
	Relationships datatypes.JSONSlice[Relationship] `json:"relationships"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
}

func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if len(c.CardData) == 0 {
		c.CardData = datatypes.JSON("{}")
	}
	if c.Tags == nil {
		c.Tags = datatypes.JSONSlice[string]{}
	}
	if c.Relationships == nil {
		c.Relationships = datatypes.JSONSlice[Relationship]{}
	}
	return nil
}
