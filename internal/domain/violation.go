package domain

import "fmt"

type ViolationCode string

const (
	// LaborTotalMismatch: the stated "total labor" differs from the confirmed total.
	LaborTotalMismatch ViolationCode = "LABOR_TOTAL_MISMATCH"
	// LaborSumDrift: the itemized step hours do not add up to the confirmed total.
	LaborSumDrift ViolationCode = "LABOR_SUM_DRIFT"
)

// Violation is a finding from report validation. It is returned, never stored.
type Violation struct {
	Code     ViolationCode
	Stated   float64
	Expected float64
}

func (v Violation) Message() string {
	switch v.Code {
	case LaborTotalMismatch:
		return fmt.Sprintf("stated total labor %.1f hr does not match confirmed %.1f hr", v.Stated, v.Expected)
	case LaborSumDrift:
		return fmt.Sprintf("itemized labor sums to %.1f hr, confirmed total is %.1f hr", v.Stated, v.Expected)
	default:
		return string(v.Code)
	}
}
