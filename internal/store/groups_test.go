package store

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pinnlo/pinnlo-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGroup(t *testing.T) {
	g := &models.Group{Name: "  Launch  "}
	require.NoError(t, ValidateGroup(g))
	assert.Equal(t, "Launch", g.Name)
	assert.Equal(t, "blue", g.Color)

	for _, tc := range []struct {
		group models.Group
		msg   string
	}{
		{models.Group{Name: ""}, "Group name is required"},
		{models.Group{Name: strings.Repeat("n", 101)}, "Group name must be at most 100 characters"},
		{models.Group{Name: "ok", Description: strings.Repeat("d", 501)}, "Group description must be at most 500 characters"},
		{models.Group{Name: "ok", Color: "teal"}, "invalid group color"},
	} {
		err := ValidateGroup(&tc.group)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, tc.msg, err.Error())
	}

	assert.NoError(t, ValidateGroup(&models.Group{Name: strings.Repeat("é", 100)}))
}

func TestGroupStoreCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g := f.group(t, f.user, "Launch")
	assert.Equal(t, 0, g.CardCount)
	assert.Nil(t, g.LastUsedAt)

	_, err := f.groups.Get(ctx, uuid.New(), g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	name, color := "Launch v2", "green"
	updated, err := f.groups.Update(ctx, f.user, g.ID, GroupPatch{Name: &name, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Name)
	assert.Equal(t, "green", updated.Color)

	bad := "mauve"
	_, err = f.groups.Update(ctx, f.user, g.ID, GroupPatch{Color: &bad})
	assert.True(t, IsValidation(err))

	got, err := f.groups.Get(ctx, f.user, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "green", got.Color)

	require.NoError(t, f.groups.Delete(ctx, f.user, g.ID))
	_, err = f.groups.Get(ctx, f.user, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.groups.Delete(ctx, f.user, g.ID), ErrNotFound)
}

func TestGroupListOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.group(t, f.user, "beta")
	f.group(t, f.user, "alpha")
	used := f.group(t, f.user, "zulu")
	f.group(t, uuid.New(), "someone else")

	c := f.card(t, f.user, "Card")
	_, err := f.members.AddCards(ctx, f.user, used.ID, []uuid.UUID{c.ID})
	require.NoError(t, err)

	groups, err := f.groups.List(ctx, f.user)
	require.NoError(t, err)
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"zulu", "alpha", "beta"}, names)
	assert.NotNil(t, groups[0].LastUsedAt)
}

func TestGroupDeleteRemovesMemberships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := f.card(t, f.user, "Card")
	g := f.group(t, f.user, "Group")
	_, err := f.members.AddCards(ctx, f.user, g.ID, []uuid.UUID{c.ID})
	require.NoError(t, err)

	require.NoError(t, f.groups.Delete(ctx, f.user, g.ID))

	var rows int64
	require.NoError(t, f.db.Model(&models.GroupCard{}).Where("group_id = ?", g.ID).Count(&rows).Error)
	assert.Zero(t, rows)

	_, err = f.cards.Get(ctx, f.user, c.ID)
	assert.NoError(t, err, "deleting a group keeps its cards")
}
