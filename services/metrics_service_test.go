package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cocktailLogAPI/internal/badge"
	"cocktailLogAPI/internal/stats"
	"cocktailLogAPI/internal/streak"
)

var (
	testUserID = uuid.MustParse("573024d8-c5a4-40a5-8e35-2f0f11339bc7")
	// Wednesday.
	testNow = time.Date(2025, time.March, 12, 20, 0, 0, 0, time.UTC)
)

type fakeRepo struct {
	mu sync.Mutex

	users    map[string]uuid.UUID
	usersErr error

	counts     map[badge.BadgeType]int
	countErrs  map[badge.BadgeType]error
	countPanic badge.BadgeType

	times    []time.Time
	timesErr error

	logs      []stats.DrinkLog
	logsErr   error
	logsPanic bool

	lookbacks []int
}

func (f *fakeRepo) UserIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	if f.usersErr != nil {
		return uuid.Nil, f.usersErr
	}
	id, ok := f.users[clerkID]
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}
	return id, nil
}

func (f *fakeRepo) CountActivity(ctx context.Context, userID uuid.UUID, kind badge.BadgeType) (int, error) {
	if kind == f.countPanic {
		panic("boom")
	}
	if err := f.countErrs[kind]; err != nil {
		return 0, err
	}
	return f.counts[kind], nil
}

func (f *fakeRepo) RecentLogTimes(ctx context.Context, userID uuid.UUID, limit int) ([]time.Time, error) {
	f.mu.Lock()
	f.lookbacks = append(f.lookbacks, limit)
	f.mu.Unlock()
	return f.times, f.timesErr
}

func (f *fakeRepo) DrinkLogs(ctx context.Context, userID uuid.UUID) ([]stats.DrinkLog, error) {
	if f.logsPanic {
		panic("boom")
	}
	return f.logs, f.logsErr
}

type prefixResolver struct{}

func (prefixResolver) PublicURL(bucket, filename string) string {
	return "https://cdn.test/" + bucket + "/" + filename
}

type panicResolver struct{}

func (panicResolver) PublicURL(bucket, filename string) string {
	panic("resolver exploded")
}

func newTestService(repo MetricsRepository, resolver badge.URLResolver) *MetricsService {
	return NewMetricsService(repo, resolver, MetricsOptions{
		Bucket:   "badges",
		Lookback: 365,
		Clock:    func() time.Time { return testNow },
	})
}

func fullRepo() *fakeRepo {
	return &fakeRepo{
		counts: map[badge.BadgeType]int{
			badge.TypeCocktailsLogged: 52,
			badge.TypeFriends:         21,
			badge.TypePartiesHosted:   5,
			badge.TypePartiesAttended: 2,
			badge.TypeRecipesCreated:  0,
		},
		times: []time.Time{
			testNow,
			testNow.AddDate(0, 0, -1),
			testNow.AddDate(0, 0, -2),
			testNow.AddDate(0, 0, -3),
			testNow.AddDate(0, 0, -4),
		},
	}
}

func TestGetBadges(t *testing.T) {
	svc := newTestService(fullRepo(), prefixResolver{})

	badges := svc.GetBadges(context.Background(), testUserID)

	require.Len(t, badges, 4)
	assert.Equal(t, badge.Badge{
		Type:     badge.TypeCocktailsLogged,
		Tier:     badge.TierGold,
		Count:    52,
		Label:    "Cocktails Logged",
		ImageURL: "https://cdn.test/badges/cocktailsG.png",
	}, badges[0])
	assert.Equal(t, badge.TierSilver, badges[1].Tier)
	assert.Equal(t, badge.TypePartiesHosted, badges[2].Type)

	last := badges[3]
	assert.Equal(t, badge.TypeDayStreak, last.Type)
	assert.Equal(t, 5, last.Count)
	assert.Equal(t, "https://cdn.test/badges/streakB.png", last.ImageURL)
}

func TestGetBadges_FailedMetricDefaultsToZero(t *testing.T) {
	repo := fullRepo()
	repo.countErrs = map[badge.BadgeType]error{badge.TypeCocktailsLogged: errors.New("connection reset")}
	svc := newTestService(repo, prefixResolver{})

	before := testutil.ToFloat64(metricsFallbacksTotal.WithLabelValues("badges", string(badge.TypeCocktailsLogged)))

	badges := svc.GetBadges(context.Background(), testUserID)

	after := testutil.ToFloat64(metricsFallbacksTotal.WithLabelValues("badges", string(badge.TypeCocktailsLogged)))
	assert.Equal(t, before+1, after)

	require.Len(t, badges, 3)
	for _, b := range badges {
		assert.NotEqual(t, badge.TypeCocktailsLogged, b.Type)
	}
}

func TestGetBadges_StreakFetchFailureKeepsCounts(t *testing.T) {
	repo := fullRepo()
	repo.timesErr = errors.New("timeout")
	svc := newTestService(repo, prefixResolver{})

	badges := svc.GetBadges(context.Background(), testUserID)

	require.Len(t, badges, 3)
	assert.Equal(t, badge.TypePartiesHosted, badges[2].Type)
}

func TestGetBadges_RepositoryPanicIsContained(t *testing.T) {
	repo := fullRepo()
	repo.countPanic = badge.TypeFriends
	svc := newTestService(repo, prefixResolver{})

	badges := svc.GetBadges(context.Background(), testUserID)

	require.Len(t, badges, 3)
	for _, b := range badges {
		assert.NotEqual(t, badge.TypeFriends, b.Type)
	}
}

func TestGetBadges_UnexpectedFailureReturnsEmpty(t *testing.T) {
	svc := newTestService(fullRepo(), panicResolver{})

	badges := svc.GetBadges(context.Background(), testUserID)

	assert.NotNil(t, badges)
	assert.Empty(t, badges)
}

func TestGetBadges_ReadsClockOnce(t *testing.T) {
	calls := 0
	svc := NewMetricsService(fullRepo(), nil, MetricsOptions{
		Clock: func() time.Time {
			calls++
			return testNow
		},
	})

	svc.GetBadges(context.Background(), testUserID)

	assert.Equal(t, 1, calls)
}

func TestGetHighestBadges(t *testing.T) {
	svc := newTestService(fullRepo(), prefixResolver{})

	top := svc.GetHighestBadges(context.Background(), testUserID, 2)

	require.Len(t, top, 2)
	assert.Equal(t, badge.TypeCocktailsLogged, top[0].Type)
	assert.Equal(t, badge.TypeFriends, top[1].Type)
}

func TestGetBadgeProgress(t *testing.T) {
	svc := newTestService(fullRepo(), nil)

	progress := svc.GetBadgeProgress(context.Background(), testUserID)

	require.Len(t, progress, len(badge.AllTypes))
	assert.Equal(t, badge.TypeRecipesCreated, progress[4].Type)
	assert.Equal(t, badge.TierNone, progress[4].Tier)
	assert.Equal(t, 5, progress[4].Remaining)
}

func TestGetBadgeProgress_UnexpectedFailureReturnsEmpty(t *testing.T) {
	svc := NewMetricsService(fullRepo(), nil, MetricsOptions{
		Clock: func() time.Time { panic("clock unavailable") },
	})
	fallbacks := metricsFallbacksTotal.WithLabelValues("badge_progress", "all")
	before := testutil.ToFloat64(fallbacks)

	var progress []badge.Progress
	require.NotPanics(t, func() {
		progress = svc.GetBadgeProgress(context.Background(), testUserID)
	})

	assert.NotNil(t, progress)
	assert.Empty(t, progress)
	assert.Equal(t, before+1, testutil.ToFloat64(fallbacks))
}

func TestGetDailyStreak(t *testing.T) {
	repo := fullRepo()
	svc := newTestService(repo, nil)

	assert.Equal(t, 5, svc.GetDailyStreak(context.Background(), testUserID))
	assert.Equal(t, []int{365}, repo.lookbacks)
}

func TestGetDailyStreak_UsesConfiguredLocation(t *testing.T) {
	repo := &fakeRepo{times: []time.Time{time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)}}
	svc := NewMetricsService(repo, nil, MetricsOptions{
		Location: time.FixedZone("UTC+10", 10*60*60),
		Clock:    func() time.Time { return testNow },
	})

	// testNow is already the 13th in UTC+10.
	assert.Equal(t, 0, svc.GetDailyStreak(context.Background(), testUserID))
}

func TestGetDailyStreak_FetchFailure(t *testing.T) {
	repo := fullRepo()
	repo.timesErr = errors.New("timeout")
	svc := newTestService(repo, nil)

	assert.Zero(t, svc.GetDailyStreak(context.Background(), testUserID))
	assert.Zero(t, svc.GetWeeklyStreak(context.Background(), testUserID))
	assert.Equal(t, streak.Summary{}, svc.GetStreakSummary(context.Background(), testUserID))
}

func TestGetWeeklyStreak(t *testing.T) {
	repo := &fakeRepo{times: []time.Time{
		testNow,
		testNow.AddDate(0, 0, -7),
		testNow.AddDate(0, 0, -21),
	}}
	svc := newTestService(repo, nil)

	assert.Equal(t, 2, svc.GetWeeklyStreak(context.Background(), testUserID))
}

func TestGetStreakSummary(t *testing.T) {
	svc := newTestService(fullRepo(), nil)

	summary := svc.GetStreakSummary(context.Background(), testUserID)

	assert.Equal(t, streak.Summary{CurrentDaily: 5, CurrentWeekly: 2, LongestDaily: 5, LongestWeekly: 2}, summary)
}

func TestGetUserStats(t *testing.T) {
	negroni := "neg"
	rating := 6
	repo := &fakeRepo{logs: []stats.DrinkLog{
		{CocktailID: &negroni, CocktailName: "Negroni", Rating: &rating},
		{CocktailID: &negroni, CocktailName: "Negroni"},
	}}
	svc := newTestService(repo, nil)

	s := svc.GetUserStats(context.Background(), testUserID)

	assert.Equal(t, 2, s.DrinksLogged)
	assert.Equal(t, 6.0, s.AverageRating)
	require.NotNil(t, s.MostPopularCocktail)
	assert.Equal(t, 2, s.MostPopularCocktail.Count)
}

func TestGetUserStats_FetchFailureReturnsZeroStats(t *testing.T) {
	svc := newTestService(&fakeRepo{logsErr: errors.New("relation does not exist")}, nil)

	assert.Equal(t, stats.Empty(), svc.GetUserStats(context.Background(), testUserID))
}

func TestGetUserStats_PanicReturnsZeroStats(t *testing.T) {
	svc := newTestService(&fakeRepo{logsPanic: true}, nil)

	assert.Equal(t, stats.Empty(), svc.GetUserStats(context.Background(), testUserID))
}

func TestResolveUser(t *testing.T) {
	repo := &fakeRepo{users: map[string]uuid.UUID{"user_abc": testUserID}}
	svc := newTestService(repo, nil)

	id, err := svc.ResolveUser(context.Background(), "user_abc")
	require.NoError(t, err)
	assert.Equal(t, testUserID, id)

	_, err = svc.ResolveUser(context.Background(), "user_missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	repo.usersErr = errors.New("pool closed")
	_, err = svc.ResolveUser(context.Background(), "user_abc")
	assert.ErrorContains(t, err, "failed to resolve user")
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestNewMetricsService_Defaults(t *testing.T) {
	svc := NewMetricsService(&fakeRepo{}, nil, MetricsOptions{})

	assert.Equal(t, badge.DefaultThresholds, svc.thresholds)
	assert.Equal(t, time.UTC, svc.loc)
	assert.Equal(t, 365, svc.lookback)
	assert.NotNil(t, svc.clock)
}

func TestDrinkLogRow_Defaults(t *testing.T) {
	id := "c1"
	empty := ""
	row := drinkLogRow{CocktailID: &id, CocktailName: &empty}
	assert.Equal(t, stats.UnknownCocktailName, row.toDrinkLog().CocktailName)

	row.CocktailName = nil
	assert.Equal(t, stats.UnknownCocktailName, row.toDrinkLog().CocktailName)

	name := "Paloma"
	row.CocktailName = &name
	assert.Equal(t, "Paloma", row.toDrinkLog().CocktailName)
}
