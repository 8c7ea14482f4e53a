package cards

import (
	"errors"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/models"
)

var (
	ErrSelfLink      = errors.New("a card cannot be linked to itself")
	ErrDuplicateLink = errors.New("card is already linked to the target")
	ErrInvalidKind   = errors.New("invalid relationship kind")
)

func linkedTargets(card *models.Card) map[uuid.UUID]struct{} {
	linked := make(map[uuid.UUID]struct{}, len(card.Relationships))
	for _, r := range card.Relationships {
		linked[r.TargetID] = struct{}{}
	}
	return linked
}

// Candidates returns the cards current may still be linked to: everything in
// all except current itself and targets it already links to.
func Candidates(current *models.Card, all []models.Card) []models.Card {
	linked := linkedTargets(current)
	out := make([]models.Card, 0, len(all))
	for _, c := range all {
		if c.ID == current.ID {
			continue
		}
		if _, ok := linked[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Link adds a relationship from card to target, snapshotting the target title.
func Link(card, target *models.Card, kind models.RelationKind) error {
	if !kind.Valid() {
		return ErrInvalidKind
	}
	if card.ID == target.ID {
		return ErrSelfLink
	}
	if _, ok := linkedTargets(card)[target.ID]; ok {
		return ErrDuplicateLink
	}
	card.Relationships = append(card.Relationships, models.Relationship{
		TargetID:    target.ID,
		TargetTitle: target.Title,
		Kind:        kind,
	})
	return nil
}

// Unlink removes the relationship to targetID and reports whether one existed.
func Unlink(card *models.Card, targetID uuid.UUID) bool {
	kept := card.Relationships[:0:0]
	removed := false
	for _, r := range card.Relationships {
		if r.TargetID == targetID {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	card.Relationships = kept
	return removed
}

// RefreshTitles re-snapshots target titles from titles (target id -> current
// title). Targets missing from titles keep their last snapshot. Reports whether
// anything changed.
func RefreshTitles(card *models.Card, titles map[uuid.UUID]string) bool {
	changed := false
	for i, r := range card.Relationships {
		title, ok := titles[r.TargetID]
		if !ok || title == r.TargetTitle {
			continue
		}
		card.Relationships[i].TargetTitle = title
		changed = true
	}
	return changed
}

// TargetIDs lists the ids card links to, in link order.
func TargetIDs(card *models.Card) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(card.Relationships))
	for _, r := range card.Relationships {
		ids = append(ids, r.TargetID)
	}
	return ids
}
