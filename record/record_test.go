package record

import (
	"testing"
	"time"
)

func TestNewStateSortKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewState("widgets", "abc", 3, []byte(`{"a":1}`), now)

	if r.PartitionKey != "widgets/abc" {
		t.Fatalf("PartitionKey = %q, want widgets/abc", r.PartitionKey)
	}
	if r.SortKey != SortKeyState {
		t.Fatalf("SortKey = %q, want %q", r.SortKey, SortKeyState)
	}
	if !IsState(r) {
		t.Fatal("IsState(r) = false")
	}
	if IsInbound(r) || IsOutbound(r) {
		t.Fatal("state row misclassified as inbound/outbound")
	}
}

func TestNewInboundSortKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewInbound("widgets", "abc", 1, "TestEvent", []byte(`{}`), now)

	want := "INBOUND/TestEvent/1"
	if r.SortKey != want {
		t.Fatalf("SortKey = %q, want %q", r.SortKey, want)
	}
	if !IsInbound(r) {
		t.Fatal("IsInbound(r) = false")
	}
	if IsState(r) || IsOutbound(r) {
		t.Fatal("inbound row misclassified")
	}
}

func TestNewOutboundSortKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	r := NewOutbound("widgets", "abc", 5, 2, "Notified", []byte(`{}`), now)

	want := "OUTBOUND/Notified/5/2"
	if r.SortKey != want {
		t.Fatalf("SortKey = %q, want %q", r.SortKey, want)
	}
	if !IsOutbound(r) {
		t.Fatal("IsOutbound(r) = false")
	}
	if IsState(r) || IsInbound(r) {
		t.Fatal("outbound row misclassified")
	}
}

func TestIsFacet(t *testing.T) {
	r := NewState("widgets", "abc", 1, nil, time.Now())
	if !IsFacet("widgets", r) {
		t.Fatal("IsFacet(widgets, r) = false")
	}
	if IsFacet("gadgets", r) {
		t.Fatal("IsFacet(gadgets, r) = true")
	}
}

func TestOutboundIndexDisambiguates(t *testing.T) {
	now := time.Now()
	a := NewOutbound("widgets", "abc", 5, 0, "X", nil, now)
	b := NewOutbound("widgets", "abc", 5, 1, "X", nil, now)
	if a.SortKey == b.SortKey {
		t.Fatalf("outbound rows at same sequence collided: %q", a.SortKey)
	}
}
