package chain

import (
	"fmt"
	"strconv"
)

//nolint:gochecknoglobals // Fixed month code table
var monthCodes = [12]string{
	"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
	"JUL", "AUG", "SEP", "OCT", "NOV", "DEC",
}

// MonthLabel converts a "YYMMDD" expiration date into the canonical
// "MMMYY" month code brokers use for expiration-month selectors, e.g.
// "211101" → "NOV21". The day of month is ignored.
func MonthLabel(date string) (string, error) {
	if len(date) != 6 {
		return "", fmt.Errorf("expiration date %q: want YYMMDD", date)
	}

	month, err := strconv.Atoi(date[2:4])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("expiration date %q: invalid month", date)
	}

	return monthCodes[month-1] + date[0:2], nil
}

// DistinctMonthLabels maps each date through MonthLabel, drops duplicates
// and preserves first-seen order. A malformed date fails the whole call;
// a snapshot carrying one is not safe to resolve contracts against.
func DistinctMonthLabels(dates []string) ([]string, error) {
	seen := make(map[string]struct{}, len(dates))
	labels := make([]string, 0, len(dates))

	for _, date := range dates {
		label, err := MonthLabel(date)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[label]; ok {
			continue
		}

		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	return labels, nil
}
