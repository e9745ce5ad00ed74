package artwork

import (
	"time"

	"golang.org/x/time/rate"
)

// Each provider gets at most requestsPerWindow requests per window. A
// request over the limit is delayed by Wait, never dropped; the worst
// case delay is bounded by the window.
const (
	requestsPerWindow = 5
	limiterWindow     = time.Minute
)

func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(limiterWindow/requestsPerWindow), requestsPerWindow)
}
