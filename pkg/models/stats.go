package models

// UserStats aggregates a user's learning records for progress reporting.
type UserStats struct {
	UserID            string  `json:"user_id" db:"-"`
	TotalItems        int     `json:"total_items" db:"total_items"`
	NewItems          int     `json:"new_items" db:"new_items"`
	LearningItems     int     `json:"learning_items" db:"learning_items"`
	FamiliarItems     int     `json:"familiar_items" db:"familiar_items"`
	MasteredItems     int     `json:"mastered_items" db:"mastered_items"`
	DueItems          int     `json:"due_items" db:"due_items"`
	TotalAttempts     int     `json:"total_attempts" db:"total_attempts"`
	CorrectAttempts   int     `json:"correct_attempts" db:"correct_attempts"`
	AvgEasinessFactor float64 `json:"avg_easiness_factor" db:"avg_easiness_factor"`
}

// AccuracyRatio returns correct/total attempts, or 0 with no history.
func (s *UserStats) AccuracyRatio() float64 {
	if s.TotalAttempts == 0 {
		return 0
	}
	return float64(s.CorrectAttempts) / float64(s.TotalAttempts)
}
