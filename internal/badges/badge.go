package badges

// Badge is an immutable catalog entry, identified by ID.
type Badge struct {
	ID          string
	Name        string
	Description string
	Points      int
	Requirement Requirement
	Icon        string
}

// TotalPoints sums the point values of bs.
func TotalPoints(bs []Badge) int {
	total := 0
	for _, b := range bs {
		total += b.Points
	}
	return total
}

// DefaultCatalog returns the built-in OU trivia badges, in evaluation order.
func DefaultCatalog() []Badge {
	return []Badge{
		{
			ID:          "first_boomer",
			Name:        "First Boomer",
			Description: "Complete your first OU trivia quiz.",
			Points:      25,
			Requirement: MinQuizzesRequirement{N: 1},
			Icon:        "🎓",
		},
		{
			ID:          "tenacious_sooner",
			Name:        "Tenacious Sooner",
			Description: "Answer 10 questions correctly overall.",
			Points:      50,
			Requirement: MinCorrectAnswersRequirement{N: 10},
			Icon:        "💪",
		},
		{
			ID:          "boomer_streak_5",
			Name:        "On a Roll (x5)",
			Description: "Reach a 5-answer correct streak.",
			Points:      75,
			Requirement: StreakRequirement{N: 5},
			Icon:        "🔥",
		},
		{
			ID:          "campus_expert_90",
			Name:        "Campus Expert",
			Description: "Score 90+ on any quiz.",
			Points:      100,
			Requirement: ScoreRequirement{MinScore: 90, Count: 1},
			Icon:        "🏆",
		},
		{
			ID:          "history_master",
			Name:        "History Master",
			Description: "Master the OU History category (score 90+ on a quiz).",
			Points:      120,
			Requirement: CategoryMasterRequirement{Category: "OU History"},
			Icon:        "📜",
		},
		{
			ID:          "athletics_ace",
			Name:        "Athletics Ace",
			Description: "Master the Athletics category (score 90+ on a quiz).",
			Points:      120,
			Requirement: CategoryMasterRequirement{Category: "Athletics"},
			Icon:        "🏈",
		},
		{
			ID:          "loyal_sooner_7",
			Name:        "Loyal Sooner (7-day)",
			Description: "Log in 7 days in a row.",
			Points:      150,
			Requirement: DailyLoginStreakRequirement{N: 7},
			Icon:        "📆",
		},
		{
			ID:          "academic_all_star",
			Name:        "Academic All-Star",
			Description: "Score 90+ on 3 quizzes (any categories).",
			Points:      200,
			Requirement: ScoreRequirement{MinScore: 90, Count: 3},
			Icon:        "⭐",
		},
	}
}
