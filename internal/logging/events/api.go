package events

import "github.com/lazyjira/lazyjira/internal/logging"

type APITracer struct{}

var API = APITracer{}

func (APITracer) Request(method, endpoint string) {
	logging.Trace("api.request", map[string]interface{}{"method": method, "endpoint": endpoint})
}

func (APITracer) Response(method, endpoint string, status int) {
	logging.Trace("api.response", map[string]interface{}{"method": method, "endpoint": endpoint, "status": status})
}

func (APITracer) Retry(attempt int, delayMillis int64, err error) {
	logging.Trace("api.retry", map[string]interface{}{"attempt": attempt, "delayMs": delayMillis, "error": err.Error()})
}

func (APITracer) RateLimited(waitMillis int64) {
	logging.Trace("api.ratelimited", map[string]interface{}{"waitMs": waitMillis})
}

func (APITracer) Penalty(status int) {
	logging.Trace("api.penalty", map[string]interface{}{"status": status})
}

func (APITracer) FanOut(total, fetched int) {
	logging.Trace("api.search.fanout", map[string]interface{}{"total": total, "fetched": fetched})
}
