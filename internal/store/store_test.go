package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/database"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	cards   CardStore
	groups  GroupStore
	members AssociationManager
	user    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	log := logger.Nop()
	return &fixture{
		db:      db,
		cards:   NewCardStore(db, log),
		groups:  NewGroupStore(db, log),
		members: NewAssociationManager(db, log),
		user:    uuid.New(),
	}
}

func (f *fixture) card(t *testing.T, user uuid.UUID, title string) *models.Card {
	t.Helper()
	c := &models.Card{
		UserID:   user,
		Bank:     models.BankStrategy,
		CardType: "vision",
		Title:    title,
	}
	require.NoError(t, f.cards.Create(context.Background(), c))
	return c
}

func (f *fixture) group(t *testing.T, user uuid.UUID, name string) *models.Group {
	t.Helper()
	g := &models.Group{UserID: user, Name: name}
	require.NoError(t, f.groups.Create(context.Background(), g))
	return g
}
