package main

import (
	"testing"

	"github.com/lazyjira/lazyjira/internal/app"
	"github.com/lazyjira/lazyjira/internal/config"
)

func TestCollectTTYDetailsIncludesStandardDescriptors(t *testing.T) {
	info := collectTTYDetails()
	if len(info.Probes) != 3 {
		t.Fatalf("expected 3 probe entries, got %d", len(info.Probes))
	}
	expected := []string{"stdin", "stdout", "stderr"}
	for i, name := range expected {
		if info.Probes[i].Name != name {
			t.Fatalf("expected probe %d name %q, got %q", i, name, info.Probes[i].Name)
		}
	}
}

func TestStartupTracePayloadIncludesFlags(t *testing.T) {
	cfg := config.Config{
		App: app.Config{
			Instance: "company.atlassian.net",
			Username: "dev@example.com",
			Token:    "secret",
			Project:  "PROJ",
			PageSize: 50,
		},
		Logging: config.Logging{
			FilePath: "trace.log",
			Trace:    true,
		},
		Flags: map[string]string{
			"instance": "company.atlassian.net",
			"project":  "PROJ",
		},
		Args: []string{"--instance", "company.atlassian.net"},
	}

	payload := startupTracePayload(cfg)

	flagsValue, ok := payload["flags"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected flags map in payload")
	}
	if flagsValue["instance"] != "company.atlassian.net" {
		t.Fatalf("expected instance flag, got %v", flagsValue["instance"])
	}
	if flagsValue["trace"] != true {
		t.Fatalf("expected trace flag true, got %v", flagsValue["trace"])
	}
	if flagsValue["logFile"] != "trace.log" {
		t.Fatalf("expected log file trace.log, got %v", flagsValue["logFile"])
	}

	if _, ok := payload["tty"].(ttyDetails); !ok {
		t.Fatalf("expected tty details in payload")
	}
}

func TestStartupTracePayloadRedactsToken(t *testing.T) {
	cfg := config.Config{
		App: app.Config{Token: "super-secret"},
	}
	payload := startupTracePayload(cfg)
	traced, ok := payload["config"].(config.Config)
	if !ok {
		t.Fatalf("expected config in payload")
	}
	if traced.App.Token == "super-secret" {
		t.Fatalf("token must not appear in trace payload")
	}
}
