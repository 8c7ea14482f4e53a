package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/cards"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Card, error)
	GetMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Card, error)
	List(ctx context.Context, userID uuid.UUID, bank models.Bank) ([]models.Card, error)
	Update(ctx context.Context, userID, id uuid.UUID, patch CardPatch) (*models.Card, error)
	Save(ctx context.Context, card *models.Card) error
	SetStatus(ctx context.Context, userID, id uuid.UUID, status models.CardStatus) (*models.Card, error)
	Delete(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error)
}

// CardPatch holds the fields of a partial update. Nil fields are left alone.
type CardPatch struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	CardType    *string            `json:"card_type"`
	CardData    json.RawMessage    `json:"card_data"`
	Status      *models.CardStatus `json:"status"`
	Priority    *models.Level      `json:"priority"`
	Confidence  *models.Level      `json:"confidence"`
	Tags        *[]string          `json:"tags"`
}

type cardStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCardStore(db *gorm.DB, baseLog *logger.Logger) CardStore {
	return &cardStore{db: db, log: baseLog.With("store", "CardStore")}
}

// ValidateCard normalizes card in place and rejects it when required fields are
// missing or typed fields hold values outside their enums.
func ValidateCard(card *models.Card) error {
	card.Title = strings.TrimSpace(card.Title)
	if card.Title == "" {
		return invalid("Card title is required")
	}
	if !card.Bank.Valid() {
		return invalid(fmt.Sprintf("invalid bank %q", card.Bank))
	}
	if card.Status == "" {
		card.Status = models.StatusActive
	}
	card.Status = models.CardStatus(strings.ToLower(string(card.Status)))
	if !card.Status.Valid() {
		return invalid(fmt.Sprintf("invalid status %q", card.Status))
	}
	priority, ok := models.ParseLevel(string(card.Priority))
	if !ok {
		return invalid(fmt.Sprintf("invalid priority %q", card.Priority))
	}
	card.Priority = priority
	confidence, ok := models.ParseLevel(string(card.Confidence))
	if !ok {
		return invalid(fmt.Sprintf("invalid confidence %q", card.Confidence))
	}
	card.Confidence = confidence
	card.CardType = strings.TrimSpace(card.CardType)
	if card.CardType == "" {
		return invalid("Card type is required")
	}
	if bp, ok := cards.LookupBlueprint(card.CardType); ok && bp.Bank != card.Bank {
		return invalid(fmt.Sprintf("card type %q belongs to the %s bank", card.CardType, bp.Bank))
	}

	data, err := cards.DecodeCardData(card.CardType, card.CardData)
	if err != nil {
		return invalid(err.Error())
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode card_data: %w", err)
	}
	card.CardData = datatypes.JSON(encoded)

	card.Tags = cards.NormalizeTags(card.Tags)
	for _, r := range card.Relationships {
		if !r.Kind.Valid() {
			return invalid(cards.ErrInvalidKind.Error())
		}
		if card.ID != uuid.Nil && r.TargetID == card.ID {
			return invalid(cards.ErrSelfLink.Error())
		}
	}
	if card.Relationships == nil {
		card.Relationships = datatypes.JSONSlice[models.Relationship]{}
	}
	return nil
}

func (s *cardStore) Create(ctx context.Context, card *models.Card) error {
	if err := ValidateCard(card); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(card).Error; err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	s.log.Debug("Card created", "card_id", card.ID, "user_id", card.UserID)
	return nil
}

func (s *cardStore) Get(ctx context.Context, userID, id uuid.UUID) (*models.Card, error) {
	var card models.Card
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &card, nil
}

func (s *cardStore) GetMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Card, error) {
	var results []models.Card
	if len(ids) == 0 {
		return results, nil
	}
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("get cards: %w", err)
	}
	return results, nil
}

func (s *cardStore) List(ctx context.Context, userID uuid.UUID, bank models.Bank) ([]models.Card, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if bank != "" {
		q = q.Where("bank = ?", bank)
	}
	var results []models.Card
	if err := q.Order("updated_at DESC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return results, nil
}

func (s *cardStore) Update(ctx context.Context, userID, id uuid.UUID, patch CardPatch) (*models.Card, error) {
	card, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		card.Title = *patch.Title
	}
	if patch.Description != nil {
		card.Description = *patch.Description
	}
	if patch.CardType != nil {
		card.CardType = *patch.CardType
	}
	if len(patch.CardData) > 0 {
		card.CardData = datatypes.JSON(patch.CardData)
	}
	if patch.Status != nil {
		card.Status = *patch.Status
	}
	if patch.Priority != nil {
		card.Priority = *patch.Priority
	}
	if patch.Confidence != nil {
		card.Confidence = *patch.Confidence
	}
	if patch.Tags != nil {
		card.Tags = *patch.Tags
	}

	if err := s.Save(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *cardStore) Save(ctx context.Context, card *models.Card) error {
	if err := ValidateCard(card); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Save(card).Error; err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

func (s *cardStore) SetStatus(ctx context.Context, userID, id uuid.UUID, status models.CardStatus) (*models.Card, error) {
	if !status.Valid() {
		return nil, invalid(fmt.Sprintf("invalid status %q", status))
	}
	res := s.db.WithContext(ctx).
		Model(&models.Card{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("set card status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID, id)
}

// Delete removes the card and its group memberships, recounting every group it
// belonged to. It returns the ids of those groups.
func (s *cardStore) Delete(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	var groupIDs []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.Card
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&card).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(&models.GroupCard{}).
			Where("card_id = ?", id).
			Pluck("group_id", &groupIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", id).Delete(&models.GroupCard{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&card).Error; err != nil {
			return err
		}
		for _, gid := range groupIDs {
			if err := recount(tx, gid, false); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete card: %w", err)
	}
	s.log.Debug("Card deleted", "card_id", id, "groups", len(groupIDs))
	return groupIDs, nil
}
