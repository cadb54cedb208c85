package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_ThirtyFirstRequestDenied(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l := New(WithClock(func() time.Time { return now }))

	key := Key{Client: "203.0.113.7", Class: ClassText}
	for i := 0; i < 30; i++ {
		d := l.Allow(key)
		if !d.Allowed {
			t.Fatalf("request %d unexpectedly denied", i+1)
		}
		if want := 30 - (i + 1); d.Remaining != want {
			t.Fatalf("request %d remaining = %d, want %d", i+1, d.Remaining, want)
		}
	}

	d := l.Allow(key)
	if d.Allowed {
		t.Fatalf("31st request within the window must be denied")
	}
	if d.Remaining != 0 {
		t.Fatalf("denied decision remaining = %d, want 0", d.Remaining)
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("denied decision must carry a positive retry-after, got %v", d.RetryAfter)
	}
}

func TestAllow_WindowReset(t *testing.T) {
	now := time.Unix(1000, 0)
	l := New(WithClock(func() time.Time { return now }))
	key := Key{Client: "c", Class: ClassText}

	for i := 0; i < 30; i++ {
		l.Allow(key)
	}
	if l.Allow(key).Allowed {
		t.Fatalf("budget should be exhausted")
	}

	now = now.Add(15*time.Minute + time.Second)
	d := l.Allow(key)
	if !d.Allowed {
		t.Fatalf("window should have reset after it elapsed")
	}
	if d.Remaining != 29 {
		t.Fatalf("fresh window remaining = %d, want 29", d.Remaining)
	}
}

func TestAllow_ClassesAreIndependent(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(
		WithClock(func() time.Time { return now }),
		WithBudget(ClassPhoto, Budget{Max: 2, Window: time.Minute}),
	)

	textKey := Key{Client: "c", Class: ClassText}
	photoKey := Key{Client: "c", Class: ClassPhoto}

	l.Allow(photoKey)
	l.Allow(photoKey)
	if l.Allow(photoKey).Allowed {
		t.Fatalf("photo budget should be exhausted")
	}
	if !l.Allow(textKey).Allowed {
		t.Fatalf("text budget must not be affected by photo usage")
	}
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	l := New(WithBudget(ClassText, Budget{Max: 1, Window: time.Minute}))

	if !l.Allow(Key{Client: "a", Class: ClassText}).Allowed {
		t.Fatalf("first client first request denied")
	}
	if l.Allow(Key{Client: "a", Class: ClassText}).Allowed {
		t.Fatalf("first client second request allowed")
	}
	if !l.Allow(Key{Client: "b", Class: ClassText}).Allowed {
		t.Fatalf("second client must have its own window")
	}
}

func TestAllow_UnknownClassUnlimited(t *testing.T) {
	l := New()
	d := l.Allow(Key{Client: "c", Class: Class("bulk")})
	if !d.Allowed || d.Remaining != -1 {
		t.Fatalf("unknown class should pass through, got %+v", d)
	}
}

func TestPrune_DropsStaleWindows(t *testing.T) {
	now := time.Unix(0, 0)
	l := New(WithClock(func() time.Time { return now }))

	l.Allow(Key{Client: "a", Class: ClassText})
	l.Allow(Key{Client: "b", Class: ClassPhoto})

	now = now.Add(16 * time.Minute)
	l.Allow(Key{Client: "c", Class: ClassText})

	if got := l.windowCount(); got != 1 {
		t.Fatalf("stale windows not pruned, have %d", got)
	}
}
