package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// RecentWindow is how many of a user's newest vital records are handed to
// the scorer.
const RecentWindow = 7

// BandRule fires when a value falls strictly outside [Low, High].
type BandRule struct {
	Low    float64
	High   float64
	Weight float64
}

func (r BandRule) fires(v float64) bool { return v < r.Low || v > r.High }

// FloorRule fires when a value is strictly below Min.
type FloorRule struct {
	Min    float64
	Weight float64
}

func (r FloorRule) fires(v float64) bool { return v < r.Min }

// BloodPressureRule fires when either reading is strictly above its ceiling.
// Both readings must be present.
type BloodPressureRule struct {
	SystolicMax  int
	DiastolicMax int
	Weight       float64
}

// ScoringConfig holds every tunable of the scorer. The scorer keeps its own
// copy, so a config value can be reused or mutated after NewScorer returns.
type ScoringConfig struct {
	HeartRate        BandRule
	BloodPressure    BloodPressureRule
	Temperature      BandRule
	OxygenSaturation FloorRule
	SleepHours       FloorRule

	// Lower bounds of the medium and high bands, inclusive.
	MediumThreshold float64
	HighThreshold   float64

	Recommendations map[RiskLevel][]string

	NoDataFactor          string
	NoDataRecommendations []string
	AllNormalFactor       string
}

// DefaultScoringConfig returns the production thresholds and texts.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		HeartRate:        BandRule{Low: 60, High: 100, Weight: 15},
		BloodPressure:    BloodPressureRule{SystolicMax: 140, DiastolicMax: 90, Weight: 20},
		Temperature:      BandRule{Low: 36.1, High: 37.8, Weight: 25},
		OxygenSaturation: FloorRule{Min: 95, Weight: 30},
		SleepHours:       FloorRule{Min: 6, Weight: 10},
		MediumThreshold:  25,
		HighThreshold:    50,
		Recommendations: map[RiskLevel][]string{
			RiskHigh:   {"Schedule urgent doctor consultation", "Monitor vitals closely"},
			RiskMedium: {"Schedule check-up in 24-48 hours", "Rest and monitor symptoms"},
			RiskLow:    {"Continue regular monitoring", "Maintain healthy lifestyle"},
		},
		NoDataFactor:          "No vitals data available",
		NoDataRecommendations: []string{"Please log your vitals regularly for accurate monitoring"},
		AllNormalFactor:       "All vitals within normal range",
	}
}

// RiskResult is the output of a single scoring run.
type RiskResult struct {
	Score           float64   `json:"score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}

// Assessment stamps the result as a new snapshot for userID. ID and
// Timestamp are left for the repository to assign.
func (r RiskResult) Assessment(userID string) RiskAssessment {
	return RiskAssessment{
		UserID:          userID,
		Score:           r.Score,
		RiskLevel:       r.RiskLevel,
		Factors:         r.Factors,
		Recommendations: r.Recommendations,
	}
}

// Scorer turns a user's recent vitals into a risk result. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	cfg ScoringConfig
}

// NewScorer returns a scorer bound to a private copy of cfg.
func NewScorer(cfg ScoringConfig) *Scorer {
	c := cfg
	c.Recommendations = make(map[RiskLevel][]string, len(cfg.Recommendations))
	for lvl, recs := range cfg.Recommendations {
		c.Recommendations[lvl] = append([]string(nil), recs...)
	}
	c.NoDataRecommendations = append([]string(nil), cfg.NoDataRecommendations...)
	return &Scorer{cfg: c}
}

// Compute scores recent, which must be ordered newest first. Only the newest
// record is evaluated; older ones are accepted but ignored.
func (s *Scorer) Compute(recent []VitalRecord) RiskResult {
	if len(recent) == 0 {
		return RiskResult{
			Score:           0,
			RiskLevel:       RiskLow,
			Factors:         []string{s.cfg.NoDataFactor},
			Recommendations: append([]string(nil), s.cfg.NoDataRecommendations...),
		}
	}

	latest := recent[0]
	var score float64
	factors := make([]string, 0, 5)

	if hr := latest.HeartRate; hr != nil && s.cfg.HeartRate.fires(float64(*hr)) {
		factors = append(factors, fmt.Sprintf("Abnormal heart rate: %d bpm", *hr))
		score += s.cfg.HeartRate.Weight
	}
	if sys, dia := latest.BloodPressureSystolic, latest.BloodPressureDiastolic; sys != nil && dia != nil {
		bp := s.cfg.BloodPressure
		if *sys > bp.SystolicMax || *dia > bp.DiastolicMax {
			factors = append(factors, fmt.Sprintf("Elevated blood pressure: %d/%d", *sys, *dia))
			score += bp.Weight
		}
	}
	if t := latest.Temperature; t != nil && s.cfg.Temperature.fires(*t) {
		factors = append(factors, fmt.Sprintf("Abnormal temperature: %s°C", formatReading(*t)))
		score += s.cfg.Temperature.Weight
	}
	if o2 := latest.OxygenSaturation; o2 != nil && s.cfg.OxygenSaturation.fires(float64(*o2)) {
		factors = append(factors, fmt.Sprintf("Low oxygen saturation: %d%%", *o2))
		score += s.cfg.OxygenSaturation.Weight
	}
	if sl := latest.SleepHours; sl != nil && s.cfg.SleepHours.fires(*sl) {
		factors = append(factors, fmt.Sprintf("Insufficient sleep: %s hours", formatReading(*sl)))
		score += s.cfg.SleepHours.Weight
	}

	level := s.Classify(score)
	if len(factors) == 0 {
		factors = append(factors, s.cfg.AllNormalFactor)
	}

	return RiskResult{
		Score:           roundScore(score),
		RiskLevel:       level,
		Factors:         factors,
		Recommendations: append([]string(nil), s.cfg.Recommendations[level]...),
	}
}

// Classify maps a score onto the low/medium/high ladder.
func (s *Scorer) Classify(score float64) RiskLevel {
	switch {
	case score >= s.cfg.HighThreshold:
		return RiskHigh
	case score >= s.cfg.MediumThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

func roundScore(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// formatReading prints a float reading in its shortest form, keeping a
// trailing ".0" on whole numbers so 37 reads as "37.0".
func formatReading(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
