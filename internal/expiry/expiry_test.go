package expiry

import (
	"testing"
	"time"
)

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want bool
	}{
		{"fresh", 0, false},
		{"just under", TTL - time.Second, false},
		{"exactly ttl", TTL, true},
		{"just over", TTL + time.Second, true},
		{"future stamp", -time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(now.Add(-tt.age), now, TTL); got != tt.want {
				t.Errorf("IsExpired(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

type item struct {
	name  string
	stamp time.Time
}

func TestFilterLivePreservesOrder(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []item{
		{"a", now.Add(-10 * time.Minute)},
		{"b", now.Add(-3601 * time.Second)},
		{"c", now.Add(-3599 * time.Second)},
		{"d", now.Add(-2 * time.Hour)},
		{"e", now},
	}

	got := FilterLive(items, func(i item) time.Time { return i.stamp }, now, TTL)

	want := []string{"a", "c", "e"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].name != w {
			t.Errorf("got[%d] = %s, want %s", i, got[i].name, w)
		}
	}
	if items[1].name != "b" {
		t.Error("input slice was modified")
	}
}

func TestFilterLiveEmpty(t *testing.T) {
	got := FilterLive[item](nil, func(i item) time.Time { return i.stamp }, time.Now(), TTL)
	if got == nil || len(got) != 0 {
		t.Errorf("FilterLive(nil) = %v, want empty non-nil slice", got)
	}
}
