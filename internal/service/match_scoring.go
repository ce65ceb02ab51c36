package service

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

// Scoring weights. Every term is capped independently and the total is capped at MaxMatchScore.
const (
	BaseMatchScore        = 0.2
	ExpertiseTokenWeight  = 0.25
	ExpertiseCap          = 0.6
	AvailabilityBonus     = 0.2
	WorkloadWeight        = 0.2
	MaxMatchScore         = 1.0
	NoExpertiseListedNote = "No explicit expertise listed"
)

// ScoreTutor computes the fitness of tutor for req together with one justification per
// contributing term, in term order. It is pure: identical inputs give identical output.
// The score is rounded to four decimals before it is returned, so ranking compares rounded
// values and tutors whose raw scores differ only past the fourth decimal can tie.
func ScoreTutor(req models.TutoringRequest, tutor models.Tutor) models.ScoreResult {
	score := BaseMatchScore
	justifications := make([]string, 0, 4)

	keywords := lowerAll(tutor.Expertise)
	if expertise, matched := expertiseTerm(tokenize(req.Course+" "+req.Note), keywords); expertise > 0 {
		score += expertise
		justifications = append(justifications, "Expertise matches "+strings.Join(matched, ", "))
	}

	if hint, ok := req.TimeHint(); ok {
		if slot, found := matchingSlot(hint, tutor.Slots); found {
			score += AvailabilityBonus
			justifications = append(justifications, describeSlot(slot))
		}
	}

	if tutor.Workload != nil {
		if bonus := workloadTerm(*tutor.Workload); bonus > 0 {
			score += bonus
			justifications = append(justifications, fmt.Sprintf("Workload %d/%d leaves room for new students", tutor.Workload.Current, tutor.Workload.Max))
		}
	}

	if len(keywords) == 0 {
		justifications = append(justifications, NoExpertiseListedNote)
	}

	return models.ScoreResult{
		Score:          roundScore(math.Min(MaxMatchScore, score)),
		Justifications: justifications,
	}
}

// tokenize lower-cases text and splits it on runs of non-alphanumeric characters.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// expertiseTerm awards ExpertiseTokenWeight for every token contained in some keyword.
// Repeated tokens count each time; the subtotal is capped at ExpertiseCap.
func expertiseTerm(tokens, keywords []string) (float64, []string) {
	if len(keywords) == 0 {
		return 0, nil
	}
	var subtotal float64
	matched := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		if !containedInAny(token, keywords) {
			continue
		}
		subtotal += ExpertiseTokenWeight
		if _, dup := seen[token]; !dup {
			seen[token] = struct{}{}
			matched = append(matched, token)
		}
	}
	return math.Min(subtotal, ExpertiseCap), matched
}

func containedInAny(token string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(keyword, token) {
			return true
		}
	}
	return false
}

// matchingSlot returns the first slot whose leading time word overlaps the hint's leading word.
func matchingSlot(hint string, slots []models.AvailabilitySlot) (models.AvailabilitySlot, bool) {
	want := firstWord(hint)
	if want == "" {
		return models.AvailabilitySlot{}, false
	}
	for _, slot := range slots {
		have := firstWord(slot.Time)
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return slot, true
		}
	}
	return models.AvailabilitySlot{}, false
}

func describeSlot(slot models.AvailabilitySlot) string {
	desc := strings.TrimSpace(fmt.Sprintf("Available %s %s", slot.Day, slot.Time))
	if slot.Mode != "" {
		desc += fmt.Sprintf(" (%s)", slot.Mode)
	}
	return desc
}

// workloadTerm rewards spare capacity; max is floored at 1 to guard the division.
func workloadTerm(w models.Workload) float64 {
	capacity := w.Max
	if capacity < 1 {
		capacity = 1
	}
	ratio := float64(w.Current) / float64(capacity)
	return math.Max(0, WorkloadWeight*(1-ratio))
}

func firstWord(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// roundScore fixes scores to four decimals. It runs before any sort, so it decides ties.
func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}
