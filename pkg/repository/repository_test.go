package repository

import (
	"context"
	"testing"
	"time"

	"chamber122/pkg/db/option"
	"chamber122/services/testutil"

	"github.com/stretchr/testify/require"
)

type widget struct {
	ID        string `gorm:"column:id;primaryKey"`
	OwnerID   string `gorm:"column:owner_id"`
	Name      string `gorm:"column:name"`
	CreatedAt time.Time
}

func TestFindOneIgnoresEmptyQuery(t *testing.T) {
	db := testutil.NewTestDB(t, &widget{})
	store := ProvideStore[widget](db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &widget{ID: "w1", OwnerID: "u1", Name: "first"}))

	got, err := store.FindOne(ctx, &widget{ID: ""})
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = store.FindOne(ctx, nil)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = store.FindOne(ctx, &widget{ID: "w1"})
	require.NoError(t, err)
	require.Equal(t, "first", got.Name)

	got, err = store.FindOne(ctx, &widget{ID: "missing"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFindCountAndUpdate(t *testing.T) {
	db := testutil.NewTestDB(t, &widget{})
	store := ProvideStore[widget](db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &widget{ID: "w1", OwnerID: "u1", Name: "a"}))
	require.NoError(t, store.Create(ctx, &widget{ID: "w2", OwnerID: "u1", Name: "b"}))
	require.NoError(t, store.Create(ctx, &widget{ID: "w3", OwnerID: "u2", Name: "c"}))

	items, err := store.Find(ctx, &widget{OwnerID: "u1"}, option.ApplyOperator(option.Condition{Field: "name", Operator: option.NEQ, Value: "a"}))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "w2", items[0].ID)

	n, err := store.Count(ctx, &widget{OwnerID: "u1"})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	require.NoError(t, store.Update(ctx, "w3", map[string]any{"name": "renamed"}))
	require.Error(t, store.Update(ctx, "missing", map[string]any{"name": "x"}))
}
