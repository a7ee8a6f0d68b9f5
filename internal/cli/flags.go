package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blackredfox/rv-service-desk-v1.0-sub002/internal/domain"
	"github.com/spf13/pflag"
)

// statusValue is a pflag.Value restricted to case statuses; empty means any.
type statusValue struct {
	target *domain.CaseStatus
}

func (v *statusValue) String() string { return string(*v.target) }
func (v *statusValue) Type() string   { return "status" }

func (v *statusValue) Set(s string) error {
	switch st := domain.CaseStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case "", "all":
		*v.target = ""
	case domain.CaseOpen, domain.CaseReported:
		*v.target = st
	default:
		return fmt.Errorf("must be one of open, reported, all")
	}
	return nil
}

func addStatusFlag(fs *pflag.FlagSet, target *domain.CaseStatus) {
	fs.Var(&statusValue{target: target}, "status", "Filter by status: open, reported, all")
}

// hoursValue is a pflag.Value for labor hours. Set records whether the flag
// was given so callers can fall back to a prompt.
type hoursValue struct {
	hours float64
	set   bool
}

func (v *hoursValue) String() string {
	if !v.set {
		return ""
	}
	return domain.FormatHours(v.hours)
}

func (v *hoursValue) Type() string { return "hours" }

func (v *hoursValue) Set(s string) error {
	h, err := parseHours(s)
	if err != nil {
		return err
	}
	v.hours, v.set = h, true
	return nil
}

func addHoursFlag(fs *pflag.FlagSet, target *hoursValue) {
	fs.Var(target, "hours", "Confirmed total labor hours, e.g. 2.5")
}

// parseHours accepts "2.5", "2,5" and a trailing "h"/"hr".
func parseHours(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range []string{"hours", "hour", "hrs", "hr", "h"} {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	h, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("enter a positive number of hours")
	}
	return h, nil
}
