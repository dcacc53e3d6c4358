package stats

import (
	"math"
	"sort"
	"time"
)

const (
	UnknownCocktailName = "Unknown"
	OthersSliceName     = "Others"

	TopCocktailsLimit = 3
	MaxBreakdownSlice = 8
	RatingBuckets     = 6
)

// Palette is cycled by slice index, "Others" included.
var Palette = [MaxBreakdownSlice]string{
	"#FF6B6B",
	"#4ECDC4",
	"#45B7D1",
	"#FFA07A",
	"#98D8C8",
	"#F7DC6F",
	"#BB8FCE",
	"#85C1E2",
}

// DrinkLog is one logged drink. Rating is on the 0-10 scale; nil when unrated.
type DrinkLog struct {
	CocktailID   *string   `json:"cocktail_id"`
	CocktailName string    `json:"cocktail_name"`
	Rating       *int      `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
}

type TopCocktail struct {
	CocktailID string `json:"cocktail_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

type BreakdownSlice struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

type UserStats struct {
	DrinksLogged        int                `json:"drinks_logged"`
	AverageRating       float64            `json:"average_rating"`
	MostPopularCocktail *TopCocktail       `json:"most_popular_cocktail"`
	TopCocktails        []TopCocktail      `json:"top_cocktails"`
	RatingTrend         [RatingBuckets]int `json:"rating_trend"`
	CocktailBreakdown   []BreakdownSlice   `json:"cocktail_breakdown"`
}

// Empty is what callers get when the drink history could not be fetched.
func Empty() UserStats {
	return UserStats{
		TopCocktails:      []TopCocktail{},
		CocktailBreakdown: []BreakdownSlice{},
	}
}

func Compute(logs []DrinkLog) UserStats {
	s := Empty()
	s.DrinksLogged = len(logs)
	s.AverageRating = AverageRating(logs)

	ranked := rankCocktails(logs)
	s.TopCocktails = topN(ranked, TopCocktailsLimit)
	if len(s.TopCocktails) > 0 {
		top := s.TopCocktails[0]
		s.MostPopularCocktail = &top
	}
	s.RatingTrend = RatingTrend(logs)
	s.CocktailBreakdown = breakdown(ranked)
	return s
}

// AverageRating is the mean of present ratings to one decimal place, 0 when none.
func AverageRating(logs []DrinkLog) float64 {
	sum, n := 0, 0
	for _, l := range logs {
		if l.Rating == nil {
			continue
		}
		sum += *l.Rating
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

func TopCocktails(logs []DrinkLog, limit int) []TopCocktail {
	return topN(rankCocktails(logs), limit)
}

// RatingTrend buckets each rating by its rounded raw value. The raw 0-10 value is not
// halved first, so ratings above 5 fall outside the six buckets and are dropped.
func RatingTrend(logs []DrinkLog) [RatingBuckets]int {
	var trend [RatingBuckets]int
	for _, l := range logs {
		if l.Rating == nil {
			continue
		}
		bucket := int(math.Round(float64(*l.Rating)))
		if bucket < 0 || bucket >= RatingBuckets {
			continue
		}
		trend[bucket]++
	}
	return trend
}

func Breakdown(logs []DrinkLog) []BreakdownSlice {
	return breakdown(rankCocktails(logs))
}

// rankCocktails groups logs by cocktail and sorts by count, ties in first-seen order.
// Logs without a cocktail are not ranked.
func rankCocktails(logs []DrinkLog) []TopCocktail {
	index := make(map[string]int)
	var ranked []TopCocktail

	for _, l := range logs {
		if l.CocktailID == nil {
			continue
		}
		id := *l.CocktailID
		if i, ok := index[id]; ok {
			ranked[i].Count++
			continue
		}
		name := l.CocktailName
		if name == "" {
			name = UnknownCocktailName
		}
		index[id] = len(ranked)
		ranked = append(ranked, TopCocktail{CocktailID: id, Name: name, Count: 1})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

func topN(ranked []TopCocktail, limit int) []TopCocktail {
	if limit < 0 {
		limit = 0
	}
	if len(ranked) < limit {
		limit = len(ranked)
	}
	out := make([]TopCocktail, limit)
	copy(out, ranked[:limit])
	return out
}

func breakdown(ranked []TopCocktail) []BreakdownSlice {
	total := 0
	for _, c := range ranked {
		total += c.Count
	}

	pie := make([]BreakdownSlice, 0, MaxBreakdownSlice+1)
	others := 0
	for _, c := range ranked {
		share := float64(c.Count) / float64(total)
		// The share check only matters once the cap is lifted; with AND it never decides.
		if len(pie) < MaxBreakdownSlice && (len(pie) < MaxBreakdownSlice || share >= 1.0/12) {
			pie = append(pie, BreakdownSlice{
				Name:  c.Name,
				Count: c.Count,
				Color: Palette[len(pie)%len(Palette)],
			})
			continue
		}
		others += c.Count
	}

	if others > 0 {
		pie = append(pie, BreakdownSlice{
			Name:  OthersSliceName,
			Count: others,
			Color: Palette[len(pie)%len(Palette)],
		})
	}
	return pie
}
