package events

import "github.com/lazyjira/lazyjira/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Connected(instance string) {
	logging.Trace("app.connected", map[string]interface{}{"instance": instance})
}

func (AppTracer) ConnectFailed(status string) {
	logging.Trace("app.connect.failed", map[string]interface{}{"status": status})
}
