package classifier

import (
	"strconv"
	"strings"

	"scamcheck/internal/models"
)

// ParseVerdict turns raw model output into a Classification. It is a total
// function: malformed output maps to an UNKNOWN verdict instead of an error,
// so callers never need a failure path.
//
// Expected format is LEVEL|PERCENTAGE|EXPLANATION. Pipes inside the
// explanation are kept. Confidence is passed through as reported, even when
// the model wanders outside 0..100.
func ParseVerdict(raw string) models.Classification {
	unknown := models.Classification{
		Level:             models.LevelUnknown,
		ConfidencePercent: 0,
		IsScam:            false,
		Explanation:       UnknownExplanation,
	}

	parts := strings.SplitN(raw, "|", 3)
	if len(parts) < 3 {
		return unknown
	}

	level := models.Level(strings.TrimSpace(parts[0]))
	if !models.ValidModelLevels[level] {
		return unknown
	}

	confidence, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return unknown
	}

	explanation := strings.TrimSpace(parts[2])
	if explanation == "" {
		explanation = NoExplanation
	}

	return models.Classification{
		Level:             level,
		ConfidencePercent: confidence,
		IsScam:            level != models.LevelSafe,
		Explanation:       explanation,
	}
}
