package resource

import "github.com/enescakir/emoji"

const ProjectName = "Behavioral Bias Bingo Hunt"

var (
	TextBingo      = emoji.PartyingFace.String() + " BINGO!"
	TextTimeUp     = emoji.Stopwatch.String() + " Time's Up!"
	TextGameOver   = "Game Over"
	TextNoScores   = "No scores yet. Be the first to get on the board!"
	TextUploadHint = emoji.Camera.String() + " Click to upload photo"
	TextIntro      = "Sharpen your marketing eye! Find real-world examples of %d behavioral biases in %d minutes. " +
		"Complete a line to win. Ready to hunt?"
)

// RankMark decorates the top of the leaderboard.
func RankMark(rank int) string {
	switch rank {
	case 1:
		return emoji.Trophy.String()
	case 2, 3:
		return emoji.Star.String()
	default:
		return ""
	}
}
