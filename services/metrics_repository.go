package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cocktailLogAPI/internal/badge"
	"cocktailLogAPI/internal/stats"
)

var ErrUserNotFound = errors.New("user not found")

// MetricsRepository is the read-only view of the backend the metrics service needs.
type MetricsRepository interface {
	UserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error)
	CountActivity(ctx context.Context, userID uuid.UUID, kind badge.BadgeType) (int, error)
	RecentLogTimes(ctx context.Context, userID uuid.UUID, limit int) ([]time.Time, error)
	DrinkLogs(ctx context.Context, userID uuid.UUID) ([]stats.DrinkLog, error)
}

// countQueries holds one row-count query per badge type that is sourced by counting.
// The day streak is derived from log timestamps instead.
var countQueries = map[badge.BadgeType]string{
	badge.TypeCocktailsLogged: `
	SELECT COUNT(*)
	FROM drink_logs
	WHERE user_id = $1
	`,
	// A friendship may be stored in both directions; UNION collapses it to one friend.
	badge.TypeFriends: `
	SELECT COUNT(*)
	FROM (
		SELECT friend_id AS id FROM friendships WHERE user_id = $1 AND status = 'accepted'
		UNION
		SELECT user_id AS id FROM friendships WHERE friend_id = $1 AND status = 'accepted'
	) f
	`,
	badge.TypePartiesHosted: `
	SELECT COUNT(*)
	FROM parties
	WHERE host_id = $1
	`,
	badge.TypePartiesAttended: `
	SELECT COUNT(*)
	FROM party_attendees
	WHERE user_id = $1
	`,
	badge.TypeRecipesCreated: `
	SELECT COUNT(*)
	FROM recipes
	WHERE created_by = $1
	`,
}

type PgMetricsRepository struct {
	db *pgxpool.Pool
}

func NewPgMetricsRepository(db *pgxpool.Pool) *PgMetricsRepository {
	return &PgMetricsRepository{db: db}
}

func (r *PgMetricsRepository) UserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get user: %w", err)
	}
	return userID, nil
}

func (r *PgMetricsRepository) CountActivity(ctx context.Context, userID uuid.UUID, kind badge.BadgeType) (int, error) {
	query, ok := countQueries[kind]
	if !ok {
		return 0, fmt.Errorf("no count query for %s", kind)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	return count, nil
}

func (r *PgMetricsRepository) RecentLogTimes(ctx context.Context, userID uuid.UUID, limit int) ([]time.Time, error) {
	query := `
	SELECT created_at
	FROM drink_logs
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var createdAt time.Time
		if err := rows.Scan(&createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan log time: %w", err)
		}
		times = append(times, createdAt)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return times, nil
}

func (r *PgMetricsRepository) DrinkLogs(ctx context.Context, userID uuid.UUID) ([]stats.DrinkLog, error) {
	query := `
	SELECT
		dl.cocktail_id::text,
		c.name,
		dl.rating,
		dl.created_at
	FROM drink_logs dl
	LEFT JOIN cocktails c ON c.id = dl.cocktail_id
	WHERE dl.user_id = $1
	ORDER BY dl.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch drink logs: %w", err)
	}
	defer rows.Close()

	var logs []stats.DrinkLog
	for rows.Next() {
		var row drinkLogRow
		if err := rows.Scan(&row.CocktailID, &row.CocktailName, &row.Rating, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan drink log: %w", err)
		}
		logs = append(logs, row.toDrinkLog())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return logs, nil
}

// drinkLogRow mirrors the nullable columns of the drink log join.
type drinkLogRow struct {
	CocktailID   *string
	CocktailName *string
	Rating       *int
	CreatedAt    time.Time
}

func (row drinkLogRow) toDrinkLog() stats.DrinkLog {
	name := stats.UnknownCocktailName
	if row.CocktailName != nil && *row.CocktailName != "" {
		name = *row.CocktailName
	}
	return stats.DrinkLog{
		CocktailID:   row.CocktailID,
		CocktailName: name,
		Rating:       row.Rating,
		CreatedAt:    row.CreatedAt,
	}
}
