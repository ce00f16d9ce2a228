package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"scamcheck/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepo(t *testing.T) *RecordRepository {
	t.Helper()
	repo, err := NewRecordRepository(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInsertAndListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	user := models.Record{
		ID:         "rec-1",
		IdentityID: "user-1",
		Text:       "is this a scam?",
		Sender:     models.SenderUser,
		CreatedAt:  &now,
	}
	require.NoError(t, repo.Insert(ctx, &user))

	later := now.Add(time.Second)
	ai := models.Record{
		ID:         "rec-2",
		IdentityID: "user-1",
		Text:       "Classic lottery scam pattern.",
		Sender:     models.SenderAI,
		CreatedAt:  &later,
		Classification: &models.Classification{
			Level:             models.LevelHighlyLikelyScam,
			ConfidencePercent: 88,
			IsScam:            true,
			Explanation:       "Classic lottery scam pattern.",
		},
	}
	require.NoError(t, repo.Insert(ctx, &ai))

	records, err := repo.ListByIdentity(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "rec-1", records[0].ID)
	assert.Equal(t, models.SenderUser, records[0].Sender)
	assert.Nil(t, records[0].Classification)
	require.NotNil(t, records[0].CreatedAt)
	assert.True(t, records[0].CreatedAt.Equal(now))

	require.NotNil(t, records[1].Classification)
	assert.Equal(t, models.LevelHighlyLikelyScam, records[1].Classification.Level)
	assert.Equal(t, 88, records[1].Classification.ConfidencePercent)
	assert.True(t, records[1].Classification.IsScam)
}

func TestListIsScopedToIdentity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, rec := range []models.Record{
		{ID: "a-1", IdentityID: "alice", Text: "hi", Sender: models.SenderUser, CreatedAt: &now},
		{ID: "b-1", IdentityID: "bob", Text: "yo", Sender: models.SenderUser, CreatedAt: &now},
	} {
		rec := rec
		require.NoError(t, repo.Insert(ctx, &rec))
	}

	records, err := repo.ListByIdentity(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a-1", records[0].ID)
}

func TestNilTimestampSurvivesRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pending := models.Record{
		ID:         "pending-1",
		IdentityID: "user-1",
		Text:       "still sending",
		Sender:     models.SenderUser,
	}
	require.NoError(t, repo.Insert(ctx, &pending))

	records, err := repo.ListByIdentity(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].CreatedAt)
}

func TestCountByIdentity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"r1", "r2", "r3"} {
		rec := models.Record{ID: id, IdentityID: "user-1", Text: "m", Sender: models.SenderUser, CreatedAt: &now}
		require.NoError(t, repo.Insert(ctx, &rec))
	}

	count, err := repo.CountByIdentity(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.CountByIdentity(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
