package models

// MasteryLevel is the coarse classification of how well an item is retained,
// derived from the accuracy ratio, ease factor and interval of its record.
type MasteryLevel string

const (
	MasteryNew      MasteryLevel = "new"
	MasteryLearning MasteryLevel = "learning"
	MasteryFamiliar MasteryLevel = "familiar"
	MasteryMastered MasteryLevel = "mastered"
)

// Rank orders mastery levels from weakest to strongest. Unknown values rank
// below new so a corrupted level can never block progression.
func (m MasteryLevel) Rank() int {
	switch m {
	case MasteryNew:
		return 0
	case MasteryLearning:
		return 1
	case MasteryFamiliar:
		return 2
	case MasteryMastered:
		return 3
	default:
		return -1
	}
}
