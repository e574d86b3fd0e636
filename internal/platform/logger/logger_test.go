package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "prod", "PRODUCTION", ""} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("mode %q: unexpected error: %v", mode, err)
		}
		l.Debug("debug", "mode", mode)
	}
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("listing_id", "l-1").Warn("publish without images", "images", 0)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["listing_id"] != "l-1" {
		t.Errorf("expected listing_id field, got %v", fields)
	}
	if fields["images"] != int64(0) {
		t.Errorf("expected images field 0, got %v (%T)", fields["images"], fields["images"])
	}
}
