package aggregate

import "time"

// DefaultMaxLabels is the display maximum before axis labels are thinned.
const DefaultMaxLabels = 6

// formatLabel renders one bucket start for axis display.
func formatLabel(t time.Time, g Granularity) string {
	switch g {
	case FiveMinute, Hour:
		return t.Format("15:04")
	case Day, Week:
		return t.Format("2 Jan")
	case Month:
		return t.Format("Jan 06")
	default:
		return t.Format("2 Jan")
	}
}

// Labels produces one axis label per bucket. When the bucket count is at or
// below maxLabels every bucket is labeled; otherwise only the first, the
// last, and every step-th bucket get labels, with step = max(1,
// bucketCount/maxLabels). Blank entries keep the label slice aligned with
// the bucket slice.
func Labels(buckets []Bucket, g Granularity, maxLabels int) []string {
	n := len(buckets)
	if n == 0 {
		return nil
	}
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}

	labels := make([]string, n)

	if n <= maxLabels {
		for i, b := range buckets {
			labels[i] = formatLabel(b.Start, g)
		}
		return labels
	}

	step := n / maxLabels
	if step < 1 {
		step = 1
	}
	for i, b := range buckets {
		if i == 0 || i == n-1 || i%step == 0 {
			labels[i] = formatLabel(b.Start, g)
		}
	}

	return labels
}
