// Package relations maintains the follow graph. An edge is a single row in
// the followers table, so the follower-side and following-side views can
// never disagree: both are readings of the same row.
package relations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"blogspace.com/blogspace-server/models"
	"github.com/lib/pq"
)

var (
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrTargetNotFound   = errors.New("target user not found")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("not following this user")
)

const queryTimeout = 5 * time.Second

type Stats struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
}

type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Follow creates the edge actor -> target. The primary key on
// (follower_id, following_id) rejects a duplicate edge even when two
// identical follows race; the CHECK constraint backs up the self-follow
// guard.
func (m *Manager) Follow(ctx context.Context, actorID, targetID int) error {
	if actorID == targetID {
		return ErrSelfFollow
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	exists, err := m.userExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTargetNotFound
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO followers (follower_id, following_id, created_at)
		VALUES ($1, $2, NOW())`,
		actorID, targetID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrAlreadyFollowing
		}
		return err
	}
	return nil
}

// Unfollow removes the edge actor -> target.
func (m *Manager) Unfollow(ctx context.Context, actorID, targetID int) error {
	if actorID == targetID {
		return ErrSelfFollow
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	exists, err := m.userExists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTargetNotFound
	}

	result, err := m.db.ExecContext(ctx, `
		DELETE FROM followers
		WHERE follower_id = $1 AND following_id = $2`,
		actorID, targetID)
	if err != nil {
		return err
	}

	if rowsAffected, _ := result.RowsAffected(); rowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// IsFollowing reports whether the edge actor -> target exists.
func (m *Manager) IsFollowing(ctx context.Context, actorID, targetID int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var following bool
	err := m.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM followers
		WHERE follower_id = $1 AND following_id = $2)`,
		actorID, targetID).Scan(&following)
	return following, err
}

// Stats counts both sides of the graph for a user. Counts are always read
// from the edge table, never cached.
func (m *Manager) Stats(ctx context.Context, userID int) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats Stats
	err := m.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM followers WHERE following_id = $1) as followers,
			(SELECT COUNT(*) FROM followers WHERE follower_id = $1) as following`,
		userID).Scan(&stats.FollowersCount, &stats.FollowingCount)
	return stats, err
}

// Followers lists the users following userID, newest first.
func (m *Manager) Followers(ctx context.Context, userID int) ([]models.FollowerInfo, error) {
	return m.listEdges(ctx, `
		SELECT u.id, u.username, u.name, f.created_at
		FROM followers f
		JOIN users u ON f.follower_id = u.id
		WHERE f.following_id = $1
		ORDER BY f.created_at DESC`,
		userID)
}

// Following lists the users userID follows, newest first.
func (m *Manager) Following(ctx context.Context, userID int) ([]models.FollowerInfo, error) {
	return m.listEdges(ctx, `
		SELECT u.id, u.username, u.name, f.created_at
		FROM followers f
		JOIN users u ON f.following_id = u.id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC`,
		userID)
}

func (m *Manager) listEdges(ctx context.Context, query string, userID int) ([]models.FollowerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.FollowerInfo
	for rows.Next() {
		var u models.FollowerInfo
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.FollowedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (m *Manager) userExists(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := m.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	return exists, err
}
