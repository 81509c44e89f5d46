package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity     float64
	WeightLike  float64
	WeightReply float64
	WeightSave  float64
	WeightVote  float64
	ScaleFactor float64
}

var DefaultConfig = RankConfig{
	Gravity:     1.5,
	WeightLike:  1.0,
	WeightReply: 2.0,
	WeightSave:  3.0,
	WeightVote:  0.5,
	ScaleFactor: 1000.0,
}

// CalculateRelevance is the hot score used by "?ordem=relevantes":
// log10 of the weighted interactions divided by the age decay.
func CalculateRelevance(created time.Time, likes, replies, saves, votes int) int {
	hours := time.Since(created).Hours()
	if hours < 0 {
		hours = 0
	}

	weighted := float64(likes)*DefaultConfig.WeightLike +
		float64(replies)*DefaultConfig.WeightReply +
		float64(saves)*DefaultConfig.WeightSave +
		float64(votes)*DefaultConfig.WeightVote

	numerator := math.Log10(weighted+1) * DefaultConfig.ScaleFactor
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return int(math.Round(numerator / decay * 100))
}
