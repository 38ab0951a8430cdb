package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"outfit-stylist-be/internal/entity"
	"outfit-stylist-be/internal/model"
	"outfit-stylist-be/internal/repository/specification"
	"outfit-stylist-be/internal/repository/unitofwork"
	"outfit-stylist-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOutfitRepository(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err)
	require.NoError(t, gormDB.AutoMigrate(&model.Outfit{}))

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	repo := uowFactory.NewUnitOfWork(ctx).OutfitRepository()

	sessionId := "integration-" + uuid.NewString()
	base := time.Now().UTC().Truncate(time.Millisecond)
	older := &entity.OutfitRecord{
		Id:        uuid.NewString(),
		SessionId: sessionId,
		ImageRefs: entity.ImageRefs{BottomUrl: "https://cdn.example.com/bottom.png"},
		Season:    entity.SeasonFall,
		Formality: entity.FormalityCasual,
		Aesthetic: []string{"Cozy", "Earthy", "Laid-back"},
		Colors:    map[entity.Slot]string{entity.SlotBottom: "Olive"},
		Saved:     true,
		CreatedAt: base.Add(-time.Hour),
	}
	newer := older.Clone()
	newer.Id = uuid.NewString()
	newer.CreatedAt = base

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	t.Cleanup(func() {
		repo.Delete(ctx, older.Id)
		repo.Delete(ctx, newer.Id)
	})

	t.Run("FindAll is session scoped and newest first", func(t *testing.T) {
		list, err := repo.FindAll(ctx,
			specification.BySession{SessionID: sessionId},
			specification.SavedOnly{},
			specification.NewestFirst{},
		)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.Id, list[0].Id)
		assert.Equal(t, older.Id, list[1].Id)
		assert.Equal(t, "Olive", list[0].Colors[entity.SlotBottom])
		assert.Equal(t, []string{"Cozy", "Earthy", "Laid-back"}, list[0].Aesthetic)
	})

	t.Run("FindOne by id", func(t *testing.T) {
		found, err := repo.FindOne(ctx, specification.ByID{ID: newer.Id})
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, sessionId, found.SessionId)

		missing, err := repo.FindOne(ctx, specification.ByID{ID: uuid.NewString()})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Delete reports whether a row was removed", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, older.Id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, older.Id)
		require.NoError(t, err)
		assert.False(t, deleted)

		remaining, err := repo.FindAll(ctx, specification.BySession{SessionID: sessionId})
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})
}
