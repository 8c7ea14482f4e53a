package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"gorm.io/gorm"
)

type GroupStore interface {
	Create(ctx context.Context, group *models.Group) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Group, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch GroupPatch) (*models.Group, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type GroupPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

type groupStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGroupStore(db *gorm.DB, baseLog *logger.Logger) GroupStore {
	return &groupStore{db: db, log: baseLog.With("store", "GroupStore")}
}

func ValidateGroup(group *models.Group) error {
	group.Name = strings.TrimSpace(group.Name)
	if group.Name == "" {
		return invalid("Group name is required")
	}
	if utf8.RuneCountInString(group.Name) > 100 {
		return invalid("Group name must be at most 100 characters")
	}
	group.Description = strings.TrimSpace(group.Description)
	if utf8.RuneCountInString(group.Description) > 500 {
		return invalid("Group description must be at most 500 characters")
	}
	if group.Color == "" {
		group.Color = models.GroupColors[0]
	}
	if !models.ValidGroupColor(group.Color) {
		return invalid("invalid group color")
	}
	return nil
}

func (s *groupStore) Create(ctx context.Context, group *models.Group) error {
	if err := ValidateGroup(group); err != nil {
		return err
	}
	group.CardCount = 0
	if err := s.db.WithContext(ctx).Create(group).Error; err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	s.log.Debug("Group created", "group_id", group.ID, "user_id", group.UserID)
	return nil
}

func (s *groupStore) Get(ctx context.Context, userID, id uuid.UUID) (*models.Group, error) {
	return findGroup(s.db.WithContext(ctx), userID, id)
}

func findGroup(tx *gorm.DB, userID, id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := tx.Where("id = ? AND user_id = ?", id, userID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &group, nil
}

// List returns the user's groups, most recently used first; groups never used
// come last, ordered by name.
func (s *groupStore) List(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	var results []models.Group
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("CASE WHEN last_used_at IS NULL THEN 1 ELSE 0 END, last_used_at DESC, name ASC").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return results, nil
}

func (s *groupStore) Update(ctx context.Context, userID, id uuid.UUID, patch GroupPatch) (*models.Group, error) {
	group, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		group.Name = *patch.Name
	}
	if patch.Description != nil {
		group.Description = *patch.Description
	}
	if patch.Color != nil {
		group.Color = *patch.Color
	}
	if err := ValidateGroup(group); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(group).
		Select("name", "description", "color").
		Updates(group).Error; err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return group, nil
}

// Delete removes the group and all of its membership rows.
func (s *groupStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := findGroup(tx, userID, id)
		if err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", group.ID).Delete(&models.GroupCard{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	s.log.Debug("Group deleted", "group_id", id)
	return nil
}
