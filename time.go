package sessions

import (
	"time"

	"github.com/goliatone/go-errors"
)

// IsWithinThresholdPeriod reports whether t falls inside the window that
// started thresholdExpr ago. thresholdExpr uses time.ParseDuration syntax.
func IsWithinThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	threshold, err := time.ParseDuration(thresholdExpr)
	if err != nil {
		return false, errors.Wrap(err, errors.CategoryBadInput, "invalid threshold expression")
	}

	cutoff := time.Now().Add(-threshold)
	return t.After(cutoff), nil
}

// IsOutsideThresholdPeriod is the complement of IsWithinThresholdPeriod.
func IsOutsideThresholdPeriod(t time.Time, thresholdExpr string) (bool, error) {
	within, err := IsWithinThresholdPeriod(t, thresholdExpr)
	if err != nil {
		return false, err
	}
	return !within, nil
}
