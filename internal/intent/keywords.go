package intent

import (
	"regexp"
	"strings"

	"skylark/opscommand/internal/models"
)

// SkillVocabulary is the fixed set of skills recognised in free text
var SkillVocabulary = []string{"thermal", "mapping", "inspection", "survey"}

var (
	pilotIDPattern = regexp.MustCompile(`(?i)\bP\d+\b`)
	datePattern    = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// ExtractPilotID returns the first P<digits> token, upper-cased
func ExtractPilotID(text string) string {
	return strings.ToUpper(pilotIDPattern.FindString(text))
}

// ExtractDate returns the first YYYY-MM-DD token
func ExtractDate(text string) string {
	return datePattern.FindString(text)
}

// ExtractSkill returns the first vocabulary skill mentioned in text
func ExtractSkill(text string) string {
	lower := strings.ToLower(text)
	for _, s := range SkillVocabulary {
		if strings.Contains(lower, s) {
			return s
		}
	}
	return ""
}

// ExtractStatus finds a status keyword in text
func ExtractStatus(text string) (models.PilotStatus, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "leave"):
		return models.StatusOnLeave, true
	case strings.Contains(lower, "busy"):
		return models.StatusBusy, true
	case strings.Contains(lower, "assigned"):
		return models.StatusAssigned, true
	case strings.Contains(lower, "available"):
		return models.StatusAvailable, true
	}
	return "", false
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
