package events

import "github.com/lazyjira/lazyjira/internal/logging"

type UITracer struct{}

var UI = UITracer{}

func (UITracer) ViewChange(from, to string) {
	logging.Trace("ui.view", map[string]interface{}{"from": from, "to": to})
}

func (UITracer) Select(key string) {
	logging.Trace("ui.select", map[string]interface{}{"key": key})
}

func (UITracer) Refresh(jql string) {
	logging.Trace("ui.refresh", map[string]interface{}{"jql": jql})
}

func (UITracer) Transition(key, transitionID, name string) {
	logging.Trace("ui.transition", map[string]interface{}{"key": key, "id": transitionID, "name": name})
}

func (UITracer) Comment(key string, length int) {
	logging.Trace("ui.comment", map[string]interface{}{"key": key, "length": length})
}

func (UITracer) Yank(key string) {
	logging.Trace("ui.yank", map[string]interface{}{"key": key})
}

func (UITracer) FilterChange(query string) {
	logging.Trace("ui.filter", map[string]interface{}{"query": query})
}

func (UITracer) Error(err error) {
	logging.Trace("ui.error", map[string]interface{}{"error": err.Error()})
}
