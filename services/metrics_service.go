package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"cocktailLogAPI/internal/badge"
	"cocktailLogAPI/internal/stats"
	"cocktailLogAPI/internal/streak"
)

type MetricsOptions struct {
	Bucket     string
	Thresholds badge.Thresholds
	Location   *time.Location
	// Lookback caps how many recent logs feed the streak calculation.
	Lookback int
	Clock    func() time.Time
}

// MetricsService fetches raw rows through the repository and hands them to the pure
// badge, streak and stats packages. Its metric methods never return errors: a failed
// fetch is logged and replaced with a safe default.
type MetricsService struct {
	repo       MetricsRepository
	resolver   badge.URLResolver
	bucket     string
	thresholds badge.Thresholds
	loc        *time.Location
	lookback   int
	clock      func() time.Time
}

func NewMetricsService(repo MetricsRepository, resolver badge.URLResolver, opts MetricsOptions) *MetricsService {
	s := &MetricsService{
		repo:       repo,
		resolver:   resolver,
		bucket:     opts.Bucket,
		thresholds: opts.Thresholds,
		loc:        opts.Location,
		lookback:   opts.Lookback,
		clock:      opts.Clock,
	}
	if s.thresholds == (badge.Thresholds{}) {
		s.thresholds = badge.DefaultThresholds
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.lookback <= 0 {
		s.lookback = 365
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// now is read once per request so a computation never straddles a day boundary.
func (s *MetricsService) now() time.Time {
	return s.clock().In(s.loc)
}

func (s *MetricsService) ResolveUser(ctx context.Context, clerkID string) (uuid.UUID, error) {
	userID, err := s.repo.UserIDByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return uuid.Nil, ErrUserNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return userID, nil
}

// ActivityCounts fetches all six counts concurrently. A metric whose fetch fails
// counts as 0; the others are kept.
func (s *MetricsService) ActivityCounts(ctx context.Context, userID uuid.UUID, now time.Time) badge.ActivityCounts {
	countKinds := []badge.BadgeType{
		badge.TypeCocktailsLogged,
		badge.TypeFriends,
		badge.TypePartiesHosted,
		badge.TypePartiesAttended,
		badge.TypeRecipesCreated,
	}

	results := make([]int, len(countKinds))
	var dayStreak int

	var wg sync.WaitGroup
	for i, kind := range countKinds {
		i, kind := i, kind
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.safeCount(ctx, userID, kind)
			if err != nil {
				log.Printf("ActivityCounts: failed to count %s for user %s: %v", kind, userID, err)
				metricsFallbacksTotal.WithLabelValues("badges", string(kind)).Inc()
				return
			}
			results[i] = n
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		times, err := s.safeLogTimes(ctx, userID)
		if err != nil {
			log.Printf("ActivityCounts: failed to fetch log times for user %s: %v", userID, err)
			metricsFallbacksTotal.WithLabelValues("badges", string(badge.TypeDayStreak)).Inc()
			return
		}
		dayStreak = streak.Daily(times, now)
	}()

	wg.Wait()

	var counts badge.ActivityCounts
	for i, kind := range countKinds {
		counts.Set(kind, results[i])
	}
	counts.DayStreak = dayStreak
	return counts
}

// safeCount turns a panic inside the repository into an error so one goroutine
// cannot take the process down.
func (s *MetricsService) safeCount(ctx context.Context, userID uuid.UUID, kind badge.BadgeType) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.repo.CountActivity(ctx, userID, kind)
}

func (s *MetricsService) safeLogTimes(ctx context.Context, userID uuid.UUID) (times []time.Time, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.repo.RecentLogTimes(ctx, userID, s.lookback)
}

// GetBadges returns the user's earned badges with image URLs attached. Any
// unexpected failure yields an empty list.
func (s *MetricsService) GetBadges(ctx context.Context, userID uuid.UUID) (badges []badge.Badge) {
	timer := prometheus.NewTimer(metricsComputeDuration.WithLabelValues("badges"))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("GetBadges: unexpected failure for user %s: %v", userID, r)
			metricsFallbacksTotal.WithLabelValues("badges", "all").Inc()
			badges = []badge.Badge{}
		}
	}()

	counts := s.ActivityCounts(ctx, userID, s.now())
	earned := badge.Evaluate(counts, s.thresholds)
	badges = badge.WithImageURLs(earned, s.resolver, s.bucket)

	for _, b := range badges {
		badgesEarned.WithLabelValues(string(b.Tier)).Inc()
	}
	return badges
}

func (s *MetricsService) GetHighestBadges(ctx context.Context, userID uuid.UUID, limit int) []badge.Badge {
	return badge.Highest(s.GetBadges(ctx, userID), limit)
}

// GetBadgeProgress reports progress for every badge type. Any unexpected failure
// yields an empty list.
func (s *MetricsService) GetBadgeProgress(ctx context.Context, userID uuid.UUID) (progress []badge.Progress) {
	timer := prometheus.NewTimer(metricsComputeDuration.WithLabelValues("badge_progress"))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("GetBadgeProgress: unexpected failure for user %s: %v", userID, r)
			metricsFallbacksTotal.WithLabelValues("badge_progress", "all").Inc()
			progress = []badge.Progress{}
		}
	}()

	counts := s.ActivityCounts(ctx, userID, s.now())
	return badge.ProgressFor(counts, s.thresholds)
}

func (s *MetricsService) logTimes(ctx context.Context, userID uuid.UUID, operation string) ([]time.Time, bool) {
	times, err := s.safeLogTimes(ctx, userID)
	if err != nil {
		log.Printf("%s: failed to fetch log times for user %s: %v", operation, userID, err)
		metricsFallbacksTotal.WithLabelValues(operation, "log_times").Inc()
		return nil, false
	}
	return times, true
}

func (s *MetricsService) GetDailyStreak(ctx context.Context, userID uuid.UUID) int {
	now := s.now()
	times, ok := s.logTimes(ctx, userID, "daily_streak")
	if !ok {
		return 0
	}
	return streak.Daily(times, now)
}

func (s *MetricsService) GetWeeklyStreak(ctx context.Context, userID uuid.UUID) int {
	now := s.now()
	times, ok := s.logTimes(ctx, userID, "weekly_streak")
	if !ok {
		return 0
	}
	return streak.Weekly(times, now)
}

func (s *MetricsService) GetStreakSummary(ctx context.Context, userID uuid.UUID) streak.Summary {
	now := s.now()
	times, ok := s.logTimes(ctx, userID, "streak_summary")
	if !ok {
		return streak.Summary{}
	}
	return streak.Summarize(times, now)
}

// GetUserStats aggregates the full drink history. A failed fetch yields zeroed stats.
func (s *MetricsService) GetUserStats(ctx context.Context, userID uuid.UUID) (result stats.UserStats) {
	timer := prometheus.NewTimer(metricsComputeDuration.WithLabelValues("stats"))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("GetUserStats: unexpected failure for user %s: %v", userID, r)
			metricsFallbacksTotal.WithLabelValues("stats", "all").Inc()
			result = stats.Empty()
		}
	}()

	logs, err := s.repo.DrinkLogs(ctx, userID)
	if err != nil {
		log.Printf("GetUserStats: failed to fetch drink logs for user %s: %v", userID, err)
		metricsFallbacksTotal.WithLabelValues("stats", "drink_logs").Inc()
		return stats.Empty()
	}

	return stats.Compute(logs)
}
