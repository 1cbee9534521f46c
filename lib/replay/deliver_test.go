// Copyright 2026 The ECS Authors
// SPDX-License-Identifier: Apache-2.0

package replay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ecs-project/ecs/lib/clock"
	"github.com/ecs-project/ecs/lib/elastic"
	"github.com/ecs-project/ecs/lib/testutil"
)

var epoch = time.Date(2022, 12, 9, 19, 14, 25, 412_000_000, time.UTC)

// sentEvent is one Bulk call observed by recordingSender.
type sentEvent struct {
	index  string
	events []json.RawMessage
	at     time.Time
}

// recordingSender records every Bulk call with the clock time it was
// made at, and answers with status.
type recordingSender struct {
	clock  clock.Clock
	status int
	err    error

	mu    sync.Mutex
	calls []sentEvent
	sent  chan sentEvent
}

func newRecordingSender(clk clock.Clock) *recordingSender {
	return &recordingSender{clock: clk, status: http.StatusOK, sent: make(chan sentEvent, 64)}
}

func (s *recordingSender) Bulk(ctx context.Context, index string, events []json.RawMessage) (elastic.Response, error) {
	call := sentEvent{index: index, events: events, at: s.clock.Now()}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	s.sent <- call
	if s.err != nil {
		return elastic.Response{}, s.err
	}
	return elastic.Response{StatusCode: s.status, Status: http.StatusText(s.status)}, nil
}

func (s *recordingSender) Calls() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

func TestSendBulk(t *testing.T) {
	sender := newRecordingSender(clock.Fake(epoch))
	response, err := SendBulk(context.Background(), sender, "test", raw(`{"a":1}`, `{"b":2}`))
	if err != nil || !response.OK() {
		t.Fatalf("SendBulk = %+v, %v", response, err)
	}
	calls := sender.Calls()
	if len(calls) != 1 || len(calls[0].events) != 2 || calls[0].index != "test" {
		t.Errorf("calls = %+v, want one request with both events", calls)
	}

	if _, err := SendBulk(context.Background(), sender, "test", nil); !errors.Is(err, ErrNoEvents) {
		t.Errorf("SendBulk(empty) = %v, want ErrNoEvents", err)
	}
}

func TestTrickleTwoEventsNow(t *testing.T) {
	fake := clock.Fake(epoch)
	events, err := Normalize(context.Background(), raw(
		`{"id":"a","@timestamp":"2022-12-09T19:14:25.412Z"}`,
		`{"id":"b","@timestamp":"2022-12-09T19:14:27.412Z"}`,
	), TimeOption{Mode: Now}, fake.Now())
	if err != nil {
		t.Fatal(err)
	}

	sender := newRecordingSender(fake)
	done := make(chan int, 1)
	go func() {
		sent, _ := Trickle(context.Background(), sender, fake, "test", events, nil)
		done <- sent
	}()

	first := testutil.RequireReceive(t, sender.sent, 5*time.Second, "event a")
	if !first.at.Equal(epoch) || string(first.events[0]) != string(events[0]) {
		t.Errorf("first send = %s at %v, want a at %v", first.events[0], first.at, epoch)
	}

	fake.WaitForTimers(1)
	fake.Advance(1999 * time.Millisecond)
	select {
	case early := <-sender.sent:
		t.Fatalf("event sent %v early: %s", epoch.Add(2*time.Second).Sub(early.at), early.events[0])
	default:
	}

	fake.Advance(time.Millisecond)
	second := testutil.RequireReceive(t, sender.sent, 5*time.Second, "event b")
	if got := second.at.Sub(first.at); got != 2*time.Second {
		t.Errorf("b sent %v after a, want 2s", got)
	}
	if sent := testutil.RequireReceive(t, done, 5*time.Second, "trickle done"); sent != 2 {
		t.Errorf("sent = %d, want 2", sent)
	}
}

func TestTrickleOrdersAndWaitsDeltas(t *testing.T) {
	fake := clock.Fake(epoch)
	events := raw(
		`{"n":3,"@timestamp":"2023-01-01T00:00:05.000Z"}`,
		`{"n":1,"@timestamp":"2023-01-01T00:00:00.000Z"}`,
		`{"n":"untimed"}`,
		`{"n":2,"@timestamp":"2023-01-01T00:00:01.500Z"}`,
		`{"n":"1b","@timestamp":"2023-01-01T00:00:00.000Z"}`,
	)

	sender := newRecordingSender(fake)
	var deliveries []Delivery
	done := make(chan error, 1)
	go func() {
		_, err := Trickle(context.Background(), sender, fake, "test", events, func(delivery Delivery) {
			deliveries = append(deliveries, delivery)
		})
		done <- err
	}()

	// untimed, 1, 1b go out immediately; then 1.5s, then 3.5s.
	for i := 0; i < 3; i++ {
		testutil.RequireReceive(t, sender.sent, 5*time.Second, "immediate send %d", i)
	}
	fake.WaitForTimers(1)
	fake.Advance(1500 * time.Millisecond)
	testutil.RequireReceive(t, sender.sent, 5*time.Second, "event 2")
	fake.WaitForTimers(1)
	fake.Advance(3500 * time.Millisecond)
	testutil.RequireReceive(t, sender.sent, 5*time.Second, "event 3")
	if err := testutil.RequireReceive(t, done, 5*time.Second, "trickle done"); err != nil {
		t.Fatalf("Trickle: %v", err)
	}

	var order []string
	for _, call := range sender.Calls() {
		var body struct {
			N any `json:"n"`
		}
		json.Unmarshal(call.events[0], &body)
		order = append(order, jsonText(body.N))
	}
	want := []string{"untimed", "1", "1b", "2", "3"}
	if !slices.Equal(order, want) {
		t.Errorf("send order = %v, want %v", order, want)
	}

	waits := make([]time.Duration, len(deliveries))
	for i, delivery := range deliveries {
		waits[i] = delivery.Waited
		if delivery.Number != i+1 {
			t.Errorf("delivery %d numbered %d", i, delivery.Number)
		}
	}
	wantWaits := []time.Duration{0, 0, 0, 1500 * time.Millisecond, 3500 * time.Millisecond}
	if !slices.Equal(waits, wantWaits) {
		t.Errorf("waits = %v, want %v", waits, wantWaits)
	}
}

func jsonText(value any) string {
	data, _ := json.Marshal(value)
	text := string(data)
	if len(text) >= 2 && text[0] == '"' {
		return text[1 : len(text)-1]
	}
	return text
}

func TestTrickleContinuesAfterFailures(t *testing.T) {
	fake := clock.Fake(epoch)
	sender := newRecordingSender(fake)
	sender.status = http.StatusBadRequest

	var failed []int
	sent, err := Trickle(context.Background(), sender, fake, "test", raw(`{"a":1}`, `{"b":2}`, `{"c":3}`), func(delivery Delivery) {
		if !delivery.OK() {
			failed = append(failed, delivery.Number)
		}
	})
	if err != nil {
		t.Fatalf("Trickle: %v", err)
	}
	if sent != 3 || !slices.Equal(failed, []int{1, 2, 3}) {
		t.Errorf("sent = %d, failed = %v", sent, failed)
	}
}

func TestTrickleCancelDuringWait(t *testing.T) {
	fake := clock.Fake(epoch)
	sender := newRecordingSender(fake)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	var sent int
	go func() {
		var err error
		sent, err = Trickle(ctx, sender, fake, "test", raw(
			`{"@timestamp":"2023-01-01T00:00:00.000Z"}`,
			`{"@timestamp":"2023-01-01T01:00:00.000Z"}`,
		), nil)
		done <- err
	}()

	testutil.RequireReceive(t, sender.sent, 5*time.Second, "first event")
	fake.WaitForTimers(1)
	cancel()

	if err := testutil.RequireReceive(t, done, 5*time.Second, "trickle exit"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Trickle = %v, want context.Canceled", err)
	}
	if sent != 1 || len(sender.Calls()) != 1 {
		t.Errorf("sent = %d, calls = %d, want 1 each", sent, len(sender.Calls()))
	}
}

func TestTricklePacesZeekTSWithoutUpdate(t *testing.T) {
	fake := clock.Fake(epoch)
	events, err := Normalize(context.Background(), raw(
		`{"ts":1670613267.412,"uid":"b"}`,
		`{"ts":1670613265.412,"uid":"a"}`,
	), TimeOption{Mode: NoUpdate}, fake.Now())
	if err != nil {
		t.Fatal(err)
	}

	sender := newRecordingSender(fake)
	var deliveries []Delivery
	done := make(chan error, 1)
	go func() {
		_, err := Trickle(context.Background(), sender, fake, "conn", events, func(delivery Delivery) {
			deliveries = append(deliveries, delivery)
		})
		done <- err
	}()

	first := testutil.RequireReceive(t, sender.sent, 5*time.Second, "event a")
	fake.WaitForTimers(1)
	fake.Advance(2 * time.Second)
	second := testutil.RequireReceive(t, sender.sent, 5*time.Second, "event b")
	if err := testutil.RequireReceive(t, done, 5*time.Second, "trickle done"); err != nil {
		t.Fatalf("Trickle: %v", err)
	}

	if string(first.events[0]) != string(events[1]) || string(second.events[0]) != string(events[0]) {
		t.Errorf("send order = %s, %s; want a then b", first.events[0], second.events[0])
	}
	waits := []time.Duration{deliveries[0].Waited, deliveries[1].Waited}
	if !slices.Equal(waits, []time.Duration{0, 2 * time.Second}) {
		t.Errorf("waits = %v, want [0s 2s]", waits)
	}
}
