package badge

import (
	"fmt"
	"sort"
)

type BadgeType string

const (
	TypeCocktailsLogged BadgeType = "cocktails_logged"
	TypeFriends         BadgeType = "friends"
	TypePartiesHosted   BadgeType = "parties_hosted"
	TypePartiesAttended BadgeType = "parties_attended"
	TypeRecipesCreated  BadgeType = "recipes_created"
	TypeDayStreak       BadgeType = "day_streak"
)

// AllTypes is the display order used by Evaluate and Progress.
var AllTypes = []BadgeType{
	TypeCocktailsLogged,
	TypeFriends,
	TypePartiesHosted,
	TypePartiesAttended,
	TypeRecipesCreated,
	TypeDayStreak,
}

type Tier string

const (
	TierNone   Tier = "none"
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Rank orders tiers for display: gold=3, silver=2, bronze=1, none=0.
func (t Tier) Rank() int {
	switch t {
	case TierGold:
		return 3
	case TierSilver:
		return 2
	case TierBronze:
		return 1
	default:
		return 0
	}
}

func (t Tier) initial() string {
	switch t {
	case TierGold:
		return "G"
	case TierSilver:
		return "S"
	case TierBronze:
		return "B"
	default:
		return ""
	}
}

type Thresholds struct {
	Bronze int `json:"bronze"`
	Silver int `json:"silver"`
	Gold   int `json:"gold"`
}

var DefaultThresholds = Thresholds{Bronze: 5, Silver: 20, Gold: 50}

func (th Thresholds) Validate() error {
	if th.Bronze <= 0 || th.Silver <= th.Bronze || th.Gold <= th.Silver {
		return fmt.Errorf("badge thresholds must be positive and strictly increasing, got %d/%d/%d", th.Bronze, th.Silver, th.Gold)
	}
	return nil
}

type ActivityCounts struct {
	CocktailsLogged int `json:"cocktails_logged"`
	Friends         int `json:"friends"`
	PartiesHosted   int `json:"parties_hosted"`
	PartiesAttended int `json:"parties_attended"`
	RecipesCreated  int `json:"recipes_created"`
	DayStreak       int `json:"day_streak"`
}

func (c ActivityCounts) Count(t BadgeType) int {
	switch t {
	case TypeCocktailsLogged:
		return c.CocktailsLogged
	case TypeFriends:
		return c.Friends
	case TypePartiesHosted:
		return c.PartiesHosted
	case TypePartiesAttended:
		return c.PartiesAttended
	case TypeRecipesCreated:
		return c.RecipesCreated
	case TypeDayStreak:
		return c.DayStreak
	default:
		return 0
	}
}

// Set stores n under t. Unknown types are ignored.
func (c *ActivityCounts) Set(t BadgeType, n int) {
	switch t {
	case TypeCocktailsLogged:
		c.CocktailsLogged = n
	case TypeFriends:
		c.Friends = n
	case TypePartiesHosted:
		c.PartiesHosted = n
	case TypePartiesAttended:
		c.PartiesAttended = n
	case TypeRecipesCreated:
		c.RecipesCreated = n
	case TypeDayStreak:
		c.DayStreak = n
	}
}

type Badge struct {
	Type     BadgeType `json:"type"`
	Tier     Tier      `json:"tier"`
	Count    int       `json:"count"`
	Label    string    `json:"label"`
	ImageURL string    `json:"image_url,omitempty"`
}

type definition struct {
	label    string
	fileStub string
}

var definitions = map[BadgeType]definition{
	TypeCocktailsLogged: {label: "Cocktails Logged", fileStub: "cocktails"},
	TypeFriends:         {label: "Friends", fileStub: "friends"},
	TypePartiesHosted:   {label: "Parties Hosted", fileStub: "hosted"},
	TypePartiesAttended: {label: "Parties Attended", fileStub: "attended"},
	TypeRecipesCreated:  {label: "Recipes Created", fileStub: "recipes"},
	TypeDayStreak:       {label: "Day Streak", fileStub: "streak"},
}

func Label(t BadgeType) string {
	return definitions[t].label
}

// TierFor returns the highest tier whose threshold count meets.
func TierFor(count int, th Thresholds) Tier {
	switch {
	case count >= th.Gold:
		return TierGold
	case count >= th.Silver:
		return TierSilver
	case count >= th.Bronze:
		return TierBronze
	default:
		return TierNone
	}
}

// Evaluate classifies every badge type and returns only the earned ones.
func Evaluate(counts ActivityCounts, th Thresholds) []Badge {
	earned := make([]Badge, 0, len(AllTypes))
	for _, t := range AllTypes {
		n := counts.Count(t)
		tier := TierFor(n, th)
		if tier == TierNone {
			continue
		}
		earned = append(earned, Badge{
			Type:  t,
			Tier:  tier,
			Count: n,
			Label: Label(t),
		})
	}
	return earned
}

// ImageFile names the artwork for a badge, e.g. "cocktailsG.png".
func ImageFile(t BadgeType, tier Tier) string {
	def, ok := definitions[t]
	if !ok || tier == TierNone {
		return ""
	}
	return def.fileStub + tier.initial() + ".png"
}

type URLResolver interface {
	PublicURL(bucket, filename string) string
}

// WithImageURLs returns a copy of badges with ImageURL resolved against bucket.
func WithImageURLs(badges []Badge, resolver URLResolver, bucket string) []Badge {
	out := make([]Badge, len(badges))
	copy(out, badges)
	if resolver == nil {
		return out
	}
	for i := range out {
		file := ImageFile(out[i].Type, out[i].Tier)
		if file == "" {
			continue
		}
		out[i].ImageURL = resolver.PublicURL(bucket, file)
	}
	return out
}

const DefaultHighestLimit = 3

// Highest ranks earned badges by tier then count and returns at most limit of them.
func Highest(badges []Badge, limit int) []Badge {
	if limit <= 0 {
		limit = DefaultHighestLimit
	}

	ranked := make([]Badge, 0, len(badges))
	for _, b := range badges {
		if b.Tier.Rank() > 0 {
			ranked = append(ranked, b)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := ranked[i].Tier.Rank(), ranked[j].Tier.Rank()
		if ri != rj {
			return ri > rj
		}
		return ranked[i].Count > ranked[j].Count
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

type Progress struct {
	Type          BadgeType `json:"type"`
	Label         string    `json:"label"`
	Count         int       `json:"count"`
	Tier          Tier      `json:"tier"`
	NextTier      Tier      `json:"next_tier"`
	NextThreshold int       `json:"next_threshold,omitempty"`
	Remaining     int       `json:"remaining"`
}

// ProgressFor reports all six badge types, earned or not, with the distance to the next tier.
func ProgressFor(counts ActivityCounts, th Thresholds) []Progress {
	out := make([]Progress, 0, len(AllTypes))
	for _, t := range AllTypes {
		n := counts.Count(t)
		p := Progress{
			Type:     t,
			Label:    Label(t),
			Count:    n,
			Tier:     TierFor(n, th),
			NextTier: TierNone,
		}
		switch p.Tier {
		case TierNone:
			p.NextTier, p.NextThreshold = TierBronze, th.Bronze
		case TierBronze:
			p.NextTier, p.NextThreshold = TierSilver, th.Silver
		case TierSilver:
			p.NextTier, p.NextThreshold = TierGold, th.Gold
		}
		if p.NextTier != TierNone {
			p.Remaining = p.NextThreshold - n
		}
		out = append(out, p)
	}
	return out
}
