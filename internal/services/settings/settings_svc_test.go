package settings

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (ISettingsService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db), mock
}

func settingsRows(maxActive, maxWon int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"max_active_auctions", "max_won_auctions",
		"next_auction_at", "auction_close_at", "auction_close_notice_sec",
	}).AddRow(maxActive, maxWon, nil, nil, 0)
}

func TestGet(t *testing.T) {
	t.Run("returns existing row", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectQuery(`FROM settings WHERE id = \$1`).
			WithArgs(1).
			WillReturnRows(settingsRows(5, 3))

		s, err := svc.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, s.MaxActiveAuctions)
		assert.Equal(t, 3, s.MaxWonAuctions)
	})

	t.Run("creates defaults on first read", func(t *testing.T) {
		svc, mock := newMock(t)
		mock.ExpectQuery(`FROM settings WHERE id = \$1`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"max_active_auctions"}))
		mock.ExpectExec(`INSERT INTO settings \(id\) VALUES \(\$1\) ON CONFLICT`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s, err := svc.Get(context.Background())
		require.NoError(t, err)
		assert.Zero(t, s.MaxActiveAuctions)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSave_PartialPatch(t *testing.T) {
	svc, mock := newMock(t)
	nextAt := time.Date(2025, 7, 1, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM settings WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(settingsRows(5, 3))
	mock.ExpectExec(`INSERT INTO settings .*ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(1, 10, 3, nextAt, nil, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	maxActive := 10
	s, err := svc.Save(context.Background(), Patch{
		MaxActiveAuctions: &maxActive,
		NextAuctionAt:     &nextAt,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, s.MaxActiveAuctions)
	assert.Equal(t, 3, s.MaxWonAuctions, "untouched field keeps its value")
	require.NotNil(t, s.NextAuctionAt)
	assert.Equal(t, nextAt, *s.NextAuctionAt)
}
