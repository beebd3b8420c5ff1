package sm2

import "github.com/example/recall/pkg/models"

// masteryRule is one row of the classification table: a record qualifies for
// the rule's level when its accuracy ratio, ease factor and interval all meet
// the rule's minimums.
type masteryRule struct {
	minRatio    float64
	minEF       float64
	minInterval int
	level       models.MasteryLevel
}

// masteryRules is evaluated top to bottom; the first matching rule wins and
// anything below the table is still learning. Thresholds are policy, not
// algorithm — tune here, not in Review.
var masteryRules = []masteryRule{
	{minRatio: 0.85, minEF: 2.0, minInterval: 21, level: models.MasteryMastered},
	{minRatio: 0.60, minEF: 1.8, minInterval: 0, level: models.MasteryFamiliar},
}

// Classify derives the mastery level from the counters that justify it.
// Records with at most one attempt are always new.
func Classify(attempts, corrects int, ef float64, intervalDays int) models.MasteryLevel {
	if attempts <= 1 {
		return models.MasteryNew
	}
	ratio := float64(corrects) / float64(attempts)
	for _, r := range masteryRules {
		if ratio >= r.minRatio && ef >= r.minEF && intervalDays >= r.minInterval {
			return r.level
		}
	}
	return models.MasteryLearning
}
