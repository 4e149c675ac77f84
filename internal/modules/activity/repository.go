// Package activity records per-account engagement outcomes and serves
// the aggregate usage counts consumed by automatic distribution.
package activity

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/domain"
)

// MaxStoredActivities caps the activities table. Older rows are pruned
// when a new record pushes the table past the cap.
const MaxStoredActivities = 1000

// Repository handles activity database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new activity repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "activity").Logger(),
	}
}

// Record stores one activity and prunes the oldest rows past the cap.
func (r *Repository) Record(activity domain.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO activities (
			id, target_url, account_name, liked, retweeted, commented,
			comment_text, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		activity.ID, activity.TargetURL, activity.AccountName,
		activity.Actions.Liked, activity.Actions.Retweeted, activity.Actions.Commented,
		activity.CommentText, activity.Duration.Milliseconds(),
		activity.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	// Keep the table bounded. Uses created_at ordering so the oldest
	// records are dropped first.
	_, err = r.db.Exec(`
		DELETE FROM activities WHERE id NOT IN (
			SELECT id FROM activities ORDER BY created_at DESC LIMIT ?
		)
	`, MaxStoredActivities)
	if err != nil {
		return fmt.Errorf("failed to prune activities: %w", err)
	}

	return nil
}

// Recent returns the most recent activities, newest first.
func (r *Repository) Recent(limit int) ([]domain.Activity, error) {
	if limit <= 0 || limit > MaxStoredActivities {
		limit = MaxStoredActivities
	}

	rows, err := r.db.Query(`
		SELECT id, target_url, account_name, liked, retweeted, commented,
			comment_text, duration_ms, created_at
		FROM activities ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var (
			activity   domain.Activity
			durationMS int64
			createdAt  int64
		)
		err := rows.Scan(
			&activity.ID, &activity.TargetURL, &activity.AccountName,
			&activity.Actions.Liked, &activity.Actions.Retweeted, &activity.Actions.Commented,
			&activity.CommentText, &durationMS, &createdAt,
		)
		if err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan activity row")
			continue
		}
		activity.Duration = time.Duration(durationMS) * time.Millisecond
		activity.Timestamp = time.Unix(0, createdAt).UTC()
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}

// UsageCounts aggregates historical action counts for the given account
// names. Names with no recorded activity get zero counts, so callers
// can rank every account they pass in.
func (r *Repository) UsageCounts(names []string) (map[string]domain.UsageStats, error) {
	result := make(map[string]domain.UsageStats, len(names))
	for _, name := range names {
		result[name] = domain.UsageStats{AccountName: name}
	}
	if len(names) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(names))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(names))
	for i, name := range names {
		args[i] = name
	}

	rows, err := r.db.Query(`
		SELECT account_name,
			COALESCE(SUM(liked), 0),
			COALESCE(SUM(retweeted), 0),
			COALESCE(SUM(commented), 0)
		FROM activities
		WHERE account_name IN (`+placeholders+`)
		GROUP BY account_name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stats domain.UsageStats
		if err := rows.Scan(&stats.AccountName, &stats.LikeCount, &stats.RetweetCount, &stats.CommentCount); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan usage row")
			continue
		}
		result[stats.AccountName] = stats
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usage counts: %w", err)
	}

	return result, nil
}

// Totals holds aggregate counts across all stored activities.
type Totals struct {
	Activities int `json:"activities"`
	Likes      int `json:"likes"`
	Retweets   int `json:"retweets"`
	Comments   int `json:"comments"`
}

// Stats returns aggregate totals across the stored window.
func (r *Repository) Stats() (Totals, error) {
	var totals Totals
	err := r.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(liked), 0),
			COALESCE(SUM(retweeted), 0),
			COALESCE(SUM(commented), 0)
		FROM activities
	`).Scan(&totals.Activities, &totals.Likes, &totals.Retweets, &totals.Comments)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to compute activity totals: %w", err)
	}
	return totals, nil
}

// Reset removes all stored activities.
func (r *Repository) Reset() error {
	if _, err := r.db.Exec("DELETE FROM activities"); err != nil {
		return fmt.Errorf("failed to reset activities: %w", err)
	}
	return nil
}
