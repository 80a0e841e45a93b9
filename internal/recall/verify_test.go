package recall

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newTestProbe(h History) (*Probe, *RecentCache) {
	cache := NewRecentCache(0)
	p := NewProbe(h, cache)
	p.retryGap = time.Millisecond
	return p, cache
}

func TestVerifyDisabled(t *testing.T) {
	history := &fakeHistory{}
	p, _ := newTestProbe(history)

	res := p.Verify(context.Background(), "123", "555", false, 0, 2)
	if !res.Confirmed || res.Reason != VerifySkipped {
		t.Fatalf("got %+v, want confirmed skipped", res)
	}
	if history.fetchCount() != 0 {
		t.Errorf("fetch count = %d, want 0 when disabled", history.fetchCount())
	}
}

func TestVerifyNoChatScope(t *testing.T) {
	history := &fakeHistory{}
	p, _ := newTestProbe(history)

	res := p.Verify(context.Background(), "123", "", true, 0, 2)
	if !res.Confirmed || res.Reason != VerifySkipNoChat {
		t.Fatalf("got %+v, want confirmed skip_no_chat_id", res)
	}
	if history.fetchCount() != 0 {
		t.Errorf("fetch count = %d, want 0 without chat scope", history.fetchCount())
	}
}

func TestVerifyNotFoundRecordsCache(t *testing.T) {
	history := &fakeHistory{records: []json.RawMessage{historyRecord("777")}}
	p, cache := newTestProbe(history)

	res := p.Verify(context.Background(), "123", "555", true, 0, 2)
	if !res.Confirmed || res.Reason != VerifyNotFound {
		t.Fatalf("got %+v, want confirmed not_found_after_delete", res)
	}
	if history.fetchCount() != 1 {
		t.Errorf("fetch count = %d, want 1 (absence confirmed on first attempt)", history.fetchCount())
	}
	if !cache.Recent("123") {
		t.Error("confirmed removal should be recorded in the recall cache")
	}
}

func TestVerifyStillExists(t *testing.T) {
	history := &fakeHistory{records: []json.RawMessage{historyRecord("123")}}
	p, cache := newTestProbe(history)

	res := p.Verify(context.Background(), "123", "555", true, 0, 3)
	if res.Confirmed || res.Reason != VerifyStillExists {
		t.Fatalf("got %+v, want unconfirmed still_exists", res)
	}
	if history.fetchCount() != 3 {
		t.Errorf("fetch count = %d, want one per attempt", history.fetchCount())
	}
	if cache.Recent("123") {
		t.Error("an unconfirmed removal must not be cached")
	}
}

func TestVerifyStillExistsAlternateIDKey(t *testing.T) {
	history := &fakeHistory{records: []json.RawMessage{json.RawMessage(`{"msg_id":"123"}`)}}
	p, _ := newTestProbe(history)

	res := p.Verify(context.Background(), "123", "555", true, 0, 1)
	if res.Confirmed || res.Reason != VerifyStillExists {
		t.Fatalf("got %+v, want still_exists via msg_id key", res)
	}
}

func TestVerifyFetchError(t *testing.T) {
	history := &fakeHistory{err: errors.New("backend down")}
	p, cache := newTestProbe(history)

	res := p.Verify(context.Background(), "123", "555", true, 0, 2)
	if !res.Confirmed || res.Reason != VerifyError {
		t.Fatalf("got %+v, want confirmed verify_error", res)
	}
	if history.fetchCount() != 1 {
		t.Errorf("fetch count = %d, want 1 (no retry after fetch error)", history.fetchCount())
	}
	if cache.Recent("123") {
		t.Error("a verify error must not populate the cache")
	}
}

func TestVerifyCancelledDuringDelay(t *testing.T) {
	history := &fakeHistory{records: []json.RawMessage{historyRecord("777")}}
	p, _ := newTestProbe(history)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Verify(ctx, "123", "555", true, time.Minute, 2)
	if !res.Confirmed || res.Reason != VerifyError {
		t.Fatalf("got %+v, want confirmed verify_error on cancellation", res)
	}
	if history.fetchCount() != 0 {
		t.Errorf("fetch count = %d, want 0 after cancellation", history.fetchCount())
	}
}

func TestSleepHonorsContext(t *testing.T) {
	if !sleep(context.Background(), 0) {
		t.Error("zero duration should complete immediately")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleep(ctx, time.Minute) {
		t.Error("cancelled context should interrupt the wait")
	}
}
