package main

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestParseFlags(t *testing.T) {
	defaults := config.SLAConfig{IntervalSeconds: 60, BatchSize: 500}

	opts, err := parseFlags(nil, defaults)
	if err != nil {
		t.Fatalf("parse defaults: %v", err)
	}
	if opts.loop || opts.interval != time.Minute || opts.batch != 500 {
		t.Fatalf("unexpected defaults: %+v", opts)
	}

	opts, err = parseFlags([]string{"--loop", "--interval", "15s", "--batch", "20"}, defaults)
	if err != nil {
		t.Fatalf("parse overrides: %v", err)
	}
	if !opts.loop || opts.interval != 15*time.Second || opts.batch != 20 {
		t.Fatalf("unexpected overrides: %+v", opts)
	}

	for _, args := range [][]string{{"--batch", "0"}, {"--interval", "0s"}, {"--unknown"}} {
		if _, err := parseFlags(args, defaults); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}
