package relations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowSelf(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewManager(db)
	err = m.Follow(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestFollowTargetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	m := NewManager(db)
	err = m.Follow(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrTargetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowCreatesEdge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO followers").WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := NewManager(db)
	require.NoError(t, m.Follow(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowDuplicateEdge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO followers").WithArgs(1, 2).
		WillReturnError(&pq.Error{Code: "23505"})

	m := NewManager(db)
	err = m.Follow(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConcurrentFollowsToDifferentTargets(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("INSERT INTO followers").WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO followers").WithArgs(1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := NewManager(db)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, target := range []int{2, 3} {
		wg.Add(1)
		go func(i, target int) {
			defer wg.Done()
			errs[i] = m.Follow(context.Background(), 1, target)
		}(i, target)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnfollowSelf(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := NewManager(db)
	err = m.Unfollow(context.Background(), 1, 1)
	assert.ErrorIs(t, err, ErrSelfFollow)
}

func TestUnfollowRemovesEdge(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM followers").WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := NewManager(db)
	require.NoError(t, m.Unfollow(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnfollowNotFollowing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec("DELETE FROM followers").WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	m := NewManager(db)
	err = m.Unfollow(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrNotFollowing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnfollowTargetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	m := NewManager(db)
	err = m.Unfollow(context.Background(), 1, 2)
	assert.ErrorIs(t, err, ErrTargetNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"followers", "following"}).AddRow(3, 5))

	m := NewManager(db)
	stats, err := m.Stats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FollowersCount)
	assert.Equal(t, 5, stats.FollowingCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	followedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("JOIN users u ON f.follower_id = u.id").WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "created_at"}).
			AddRow(2, "bob", "Bob B", followedAt))

	m := NewManager(db)
	followers, err := m.Followers(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "bob", followers[0].Username)
	assert.Equal(t, followedAt, followers[0].FollowedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
