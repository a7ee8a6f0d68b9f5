package intelligence

import (
	"math"
	"regexp"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
)

// LaborTolerance is the largest difference treated as equal, in hours.
const LaborTolerance = 0.05

var (
	itemizedLineRe = regexp.MustCompile(`(?mi)^[ \t]*[-–][ \t]*(.*?)` + numberPattern + `[ \t]*` + englishHourUnit)
	statedTotalRe  = regexp.MustCompile(`(?i)total\s+labor\s*[:\-–]?\s*` + numberPattern + `\s*` + englishHourUnit)
)

// LaborCheck is the result of validating a report against confirmed labor.
type LaborCheck struct {
	Valid       bool
	ComputedSum float64
	Items       []float64
	StatedTotal *float64
	Violations  []domain.Violation
}

// ValidateLaborSum checks a drafted report's itemized labor lines and stated
// total against the confirmed total. It does not modify anything.
func ValidateLaborSum(reportText string, confirmedTotal float64) LaborCheck {
	check := LaborCheck{Violations: []domain.Violation{}}

	for _, m := range itemizedLineRe.FindAllStringSubmatch(reportText, -1) {
		if strings.Contains(strings.ToLower(m[1]), "total") {
			continue
		}
		if v, ok := parseHours(m[2]); ok {
			check.Items = append(check.Items, v)
		}
	}
	var sum float64
	for _, v := range check.Items {
		sum += v
	}
	check.ComputedSum = roundTenth(sum)

	if m := statedTotalRe.FindStringSubmatch(reportText); m != nil {
		if v, ok := parseHours(m[1]); ok {
			check.StatedTotal = &v
		}
	}

	if check.StatedTotal != nil && math.Abs(*check.StatedTotal-confirmedTotal) > LaborTolerance {
		check.Violations = append(check.Violations, domain.Violation{
			Code:     domain.LaborTotalMismatch,
			Stated:   *check.StatedTotal,
			Expected: confirmedTotal,
		})
	}
	if len(check.Items) > 0 && math.Abs(check.ComputedSum-confirmedTotal) > LaborTolerance {
		check.Violations = append(check.Violations, domain.Violation{
			Code:     domain.LaborSumDrift,
			Stated:   check.ComputedSum,
			Expected: confirmedTotal,
		})
	}

	check.Valid = len(check.Violations) == 0
	return check
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
