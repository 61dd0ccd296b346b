package db

import (
	"context"
	"testing"
	"time"
)

func TestPingNilHandleFailsClosed(t *testing.T) {
	if err := Ping(context.Background(), nil); err == nil {
		t.Fatalf("ping on nil handle must fail")
	}
	if err := Ping(context.Background(), &DB{}); err == nil {
		t.Fatalf("ping on handle without connection must fail")
	}
}

func TestNowUTC(t *testing.T) {
	now := NowUTC()
	if now.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", now.Location())
	}
	if d := time.Since(now); d < 0 || d > time.Minute {
		t.Fatalf("clock skew: %v", d)
	}
}
