package sm2

import (
	"math"
	"time"

	"github.com/example/recall/pkg/models"
)

// Memory strength is a presentation signal only: it orders due queues and
// feeds mastery displays, and never participates in interval computation.

// reviewedStrength updates the stored strength at review time. Success pulls
// the strength toward 1 proportionally to recall quality; failure halves it.
func reviewedStrength(s float64, quality, passThreshold int) float64 {
	if quality >= passThreshold {
		gain := 0.2 + 0.1*float64(quality-passThreshold)
		return clamp01(s + (1-s)*gain)
	}
	return clamp01(s * 0.5)
}

// StrengthAt returns the record's memory strength decayed to asOf. Strength
// holds steady until the record falls due, then decays exponentially with a
// half-life of one scheduled interval (Ebbinghaus-style forgetting).
func StrengthAt(rec *models.LearningRecord, asOf time.Time) float64 {
	if !asOf.After(rec.NextDueAt) {
		return clamp01(rec.MemoryStrength)
	}
	overdueDays := asOf.Sub(rec.NextDueAt).Hours() / 24
	halfLife := float64(rec.IntervalDays)
	if halfLife < 1 {
		halfLife = 1
	}
	return clamp01(rec.MemoryStrength * math.Exp2(-overdueDays/halfLife))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
