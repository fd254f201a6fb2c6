package analytics

// LeaderboardEntry is a player's best time joined with the player.
type LeaderboardEntry struct {
	RollNo     int64
	Name       string
	TimeMs     int64
	Difficulty string
}

// Standing is one player's place on the board. Players with equal times share
// a rank.
type Standing struct {
	Rank       int
	RollNo     int64
	Name       string
	TimeMs     int64
	Difficulty string
	Attempts   int
	Players    int
}
