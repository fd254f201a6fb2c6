package analytics

type BadgeID string

const (
	BadgeLightning BadgeID = "lightning"
	BadgeQuick     BadgeID = "quick"
	BadgeHardcore  BadgeID = "hardcore"
	BadgeChampion  BadgeID = "champion"
	BadgePodium    BadgeID = "podium"
	BadgeVeteran   BadgeID = "veteran"
)

type Badge struct {
	ID          BadgeID
	Name        string
	Description string
}

var AllBadges = map[BadgeID]Badge{
	BadgeLightning: {ID: BadgeLightning, Name: "Lightning", Description: "Best time under 200ms"},
	BadgeQuick:     {ID: BadgeQuick, Name: "Quick Hands", Description: "Best time under 300ms"},
	BadgeHardcore:  {ID: BadgeHardcore, Name: "Hardcore", Description: "Best time set on hard"},
	BadgeChampion:  {ID: BadgeChampion, Name: "Champion", Description: "Fastest time on the board"},
	BadgePodium:    {ID: BadgePodium, Name: "Podium", Description: "Top 3 on the board"},
	BadgeVeteran:   {ID: BadgeVeteran, Name: "Veteran", Description: "Submitted 10+ times"},
}

// EvaluateBadges returns the badges a standing has earned, fastest first.
func EvaluateBadges(st Standing) []Badge {
	var earned []Badge

	// Lightning implies Quick Hands; only the better one is shown
	switch {
	case st.TimeMs < 200:
		earned = append(earned, AllBadges[BadgeLightning])
	case st.TimeMs < 300:
		earned = append(earned, AllBadges[BadgeQuick])
	}

	if st.Difficulty == "hard" {
		earned = append(earned, AllBadges[BadgeHardcore])
	}

	switch {
	case st.Rank == 1:
		earned = append(earned, AllBadges[BadgeChampion])
	case st.Rank > 1 && st.Rank <= 3:
		earned = append(earned, AllBadges[BadgePodium])
	}

	if st.Attempts >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	return earned
}
