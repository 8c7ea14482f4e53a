package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssociationManager maintains group membership. Each membership row carries a
// position; positions only grow, so a group lists its cards in the order they
// were added.
type AssociationManager interface {
	AddCards(ctx context.Context, userID, groupID uuid.UUID, cardIDs []uuid.UUID) (int, error)
	RemoveCard(ctx context.Context, userID, groupID, cardID uuid.UUID) error
	GroupCards(ctx context.Context, userID, groupID uuid.UUID) ([]models.GroupCard, error)
	GroupsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]uuid.UUID, error)
	Recount(ctx context.Context, groupID uuid.UUID) error
}

type associationManager struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewAssociationManager(db *gorm.DB, baseLog *logger.Logger) AssociationManager {
	return &associationManager{
		db:  db,
		log: baseLog.With("store", "AssociationManager"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// AddCards inserts one membership row per card, the i-th card at position
// max+1+i. Cards that are already members, or that the user does not own, are
// skipped. Rows are inserted one by one without a surrounding transaction, so
// an error part way through leaves the earlier rows in place. It returns the
// number of rows actually inserted.
func (m *associationManager) AddCards(ctx context.Context, userID, groupID uuid.UUID, cardIDs []uuid.UUID) (int, error) {
	db := m.db.WithContext(ctx)
	if _, err := findGroup(db, userID, groupID); err != nil {
		return 0, err
	}
	if len(cardIDs) == 0 {
		return 0, nil
	}

	var owned []uuid.UUID
	if err := db.Model(&models.Card{}).
		Where("user_id = ? AND id IN ?", userID, cardIDs).
		Pluck("id", &owned).Error; err != nil {
		return 0, fmt.Errorf("resolve cards: %w", err)
	}
	ownedSet := make(map[uuid.UUID]struct{}, len(owned))
	for _, id := range owned {
		ownedSet[id] = struct{}{}
	}

	start, err := maxPosition(db, groupID)
	if err != nil {
		return 0, err
	}
	start++

	added := 0
	now := m.now()
	for i, cardID := range cardIDs {
		if _, ok := ownedSet[cardID]; !ok {
			m.log.Debug("Skipping card not owned by user", "card_id", cardID, "group_id", groupID)
			continue
		}
		row := models.GroupCard{
			GroupID:  groupID,
			CardID:   cardID,
			Position: start + i,
			AddedBy:  userID,
			AddedAt:  now,
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			continue
		}
		if res.Error != nil {
			if rcErr := recount(db, groupID, added > 0); rcErr != nil {
				m.log.Warn("Failed to recount group after partial add", "group_id", groupID, "error", rcErr)
			}
			return added, fmt.Errorf("add card %s to group: %w", cardID, res.Error)
		}
		if res.RowsAffected > 0 {
			added++
		}
	}

	if err := recount(db, groupID, true); err != nil {
		return added, err
	}
	m.log.Debug("Cards added to group", "group_id", groupID, "requested", len(cardIDs), "added", added)
	return added, nil
}

// RemoveCard deletes a membership row. Removing a card that is not a member is
// not an error.
func (m *associationManager) RemoveCard(ctx context.Context, userID, groupID, cardID uuid.UUID) error {
	db := m.db.WithContext(ctx)
	if _, err := findGroup(db, userID, groupID); err != nil {
		return err
	}
	res := db.Where("group_id = ? AND card_id = ?", groupID, cardID).Delete(&models.GroupCard{})
	if res.Error != nil {
		return fmt.Errorf("remove card from group: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return recount(db, groupID, true)
}

// GroupCards returns the group's membership rows with their cards loaded,
// ordered by position.
func (m *associationManager) GroupCards(ctx context.Context, userID, groupID uuid.UUID) ([]models.GroupCard, error) {
	db := m.db.WithContext(ctx)
	if _, err := findGroup(db, userID, groupID); err != nil {
		return nil, err
	}
	var rows []models.GroupCard
	if err := db.Preload("Card").
		Where("group_id = ?", groupID).
		Order("position ASC, added_at ASC, card_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list group cards: %w", err)
	}
	return rows, nil
}

func (m *associationManager) GroupsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := m.db.WithContext(ctx).
		Model(&models.GroupCard{}).
		Joins("JOIN card_groups ON card_groups.id = group_cards.group_id").
		Where("group_cards.card_id = ? AND card_groups.user_id = ?", cardID, userID).
		Order("group_cards.added_at ASC").
		Pluck("group_cards.group_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list groups for card: %w", err)
	}
	return ids, nil
}

// Recount sets card_count to the number of membership rows the group has.
func (m *associationManager) Recount(ctx context.Context, groupID uuid.UUID) error {
	return recount(m.db.WithContext(ctx), groupID, false)
}

func maxPosition(tx *gorm.DB, groupID uuid.UUID) (int, error) {
	var pos int
	if err := tx.Model(&models.GroupCard{}).
		Where("group_id = ?", groupID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&pos).Error; err != nil {
		return 0, fmt.Errorf("read max position: %w", err)
	}
	return pos, nil
}

func recount(tx *gorm.DB, groupID uuid.UUID, touch bool) error {
	var n int64
	if err := tx.Model(&models.GroupCard{}).Where("group_id = ?", groupID).Count(&n).Error; err != nil {
		return fmt.Errorf("count group cards: %w", err)
	}
	updates := map[string]any{"card_count": n}
	if touch {
		updates["last_used_at"] = time.Now().UTC()
	}
	if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Updates(updates).Error; err != nil {
		return fmt.Errorf("update group card count: %w", err)
	}
	return nil
}
