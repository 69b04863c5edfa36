package chat

import (
	"math"
	"time"
)

// Stats is the aggregate view over the recorded history. All attempts —
// successes and failures alike — count toward the average duration, so a
// slow failing backend is visible in the numbers.
type Stats struct {
	TotalRequests         int
	SuccessRate           float64 // 0–100, two decimal places
	AverageResponseTimeMs int64
	LastRequest           time.Time // zero when history is empty
}

// Stats computes aggregates freshly from the history on every call.
func (c *Client) Stats() Stats {
	entries := c.history.list()
	if len(entries) == 0 {
		return Stats{}
	}

	var ok int
	var total time.Duration
	for _, ex := range entries {
		if ex.Result.Success {
			ok++
		}
		total += ex.Duration
	}

	rate := float64(ok) / float64(len(entries)) * 100
	avg := total / time.Duration(len(entries))

	return Stats{
		TotalRequests:         len(entries),
		SuccessRate:           math.Round(rate*100) / 100,
		AverageResponseTimeMs: int64(math.Round(float64(avg) / float64(time.Millisecond))),
		LastRequest:           entries[0].Timestamp,
	}
}
