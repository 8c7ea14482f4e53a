package cards

import (
	"sort"
	"strings"

	"github.com/pinnlo/pinnlo-server/internal/models"
)

type SortKey string

const (
	SortUpdated  SortKey = "updated"
	SortCreated  SortKey = "created"
	SortTitle    SortKey = "title"
	SortPriority SortKey = "priority"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortUpdated, SortCreated, SortTitle, SortPriority:
		return true
	}
	return false
}

// Query is a multi-select filter over a card list. Empty slices match
// everything; within a slice any value matches, except Tags where a card must
// carry all of them.
type Query struct {
	Statuses   []models.CardStatus
	Priorities []models.Level
	Tags       []string
	Text       string
	Sort       SortKey
	Desc       bool
}

func (q Query) match(c *models.Card) bool {
	if len(q.Statuses) > 0 && !containsStatus(q.Statuses, c.Status) {
		return false
	}
	if len(q.Priorities) > 0 && !containsLevel(q.Priorities, c.Priority) {
		return false
	}
	for _, want := range q.Tags {
		if !containsString(c.Tags, want) {
			return false
		}
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		if !strings.Contains(strings.ToLower(c.Title), text) &&
			!strings.Contains(strings.ToLower(c.Description), text) {
			return false
		}
	}
	return true
}

// Apply filters cards by q and sorts the result. The input is not modified.
func Apply(cards []models.Card, q Query) []models.Card {
	out := make([]models.Card, 0, len(cards))
	for i := range cards {
		if q.match(&cards[i]) {
			out = append(out, cards[i])
		}
	}
	Sort(out, q.Sort, q.Desc)
	return out
}

// Sort orders cards in place by key, falling back to updated time. Ties are
// broken by id so the order is stable across calls.
func Sort(cards []models.Card, key SortKey, desc bool) {
	if !key.Valid() {
		key = SortUpdated
	}
	less := func(a, b *models.Card) int {
		switch key {
		case SortCreated:
			return compareTime(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano())
		case SortTitle:
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case SortPriority:
			return a.Priority.Rank() - b.Priority.Rank()
		default:
			return compareTime(a.UpdatedAt.UnixNano(), b.UpdatedAt.UnixNano())
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		c := less(&cards[i], &cards[j])
		if c == 0 {
			return cards[i].ID.String() < cards[j].ID.String()
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareTime(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func containsStatus(list []models.CardStatus, s models.CardStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsLevel(list []models.Level, l models.Level) bool {
	for _, v := range list {
		if v == l {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
