package discord

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kwarren/resonance/internal/presence"
)

type fakeRPC struct {
	mu         sync.Mutex
	activities []Activity
	closed     bool
	failNext   error
}

func (f *fakeRPC) SetActivity(a Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.activities = append(f.activities, a)
	return nil
}

func (f *fakeRPC) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeRPC) setFailNext(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

func newTestSink() (*Sink, *fakeRPC) {
	fake := &fakeRPC{}
	s := &Sink{
		appID:  "test",
		name:   "Resonance",
		logger: zerolog.Nop(),
		connect: func(string) (rpcClient, error) {
			return fake, nil
		},
	}
	return s, fake
}

func testPayload() presence.Payload {
	start := int64(1000)
	return presence.Payload{
		Details:        "Queen — Bohemian Rhapsody",
		State:          "Playing",
		LargeImageKey:  "https://example.com/art.jpg",
		LargeImageText: "A Night at the Opera",
		Timestamps:     &presence.Timestamps{Start: start, End: start + 354},
		Buttons: []presence.Button{
			{Label: "Search on YouTube", URL: "https://www.youtube.com/results?search_query=x"},
		},
	}
}

func TestSetPresence_MapsPayloadToActivity(t *testing.T) {
	s, fake := newTestSink()

	if err := s.SetPresence(testPayload()); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	if len(fake.activities) != 1 {
		t.Fatalf("expected 1 activity, got %d", len(fake.activities))
	}

	a := fake.activities[0]
	if a.Type != activityTypeListening {
		t.Errorf("type = %d, want %d (Listening)", a.Type, activityTypeListening)
	}
	if a.Details != "Queen — Bohemian Rhapsody" {
		t.Errorf("details = %q", a.Details)
	}
	if a.Assets == nil || a.Assets.LargeImage != "https://example.com/art.jpg" {
		t.Error("expected large image asset")
	}
	if a.Timestamps == nil || a.Timestamps.Start == nil || *a.Timestamps.Start != 1000 {
		t.Error("expected start timestamp 1000")
	}
	if a.Timestamps.End == nil || *a.Timestamps.End != 1354 {
		t.Error("expected end timestamp 1354")
	}
	if len(a.Buttons) != 1 || a.Buttons[0].Label != "Search on YouTube" {
		t.Errorf("buttons = %+v", a.Buttons)
	}
}

func TestSetPresence_OmitsEndWhenDurationUnknown(t *testing.T) {
	s, fake := newTestSink()

	p := testPayload()
	p.Timestamps = &presence.Timestamps{Start: 1000}
	if err := s.SetPresence(p); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}
	if fake.activities[0].Timestamps.End != nil {
		t.Error("end timestamp should be omitted when unknown")
	}
}

func TestSetPresence_DropsConnectionOnError(t *testing.T) {
	connectCount := 0
	var fake *fakeRPC
	s := &Sink{
		appID:  "test",
		logger: zerolog.Nop(),
		connect: func(string) (rpcClient, error) {
			connectCount++
			fake = &fakeRPC{}
			return fake, nil
		},
	}

	if err := s.SetPresence(testPayload()); err != nil {
		t.Fatalf("SetPresence: %v", err)
	}

	fake.setFailNext(errors.New("broken pipe"))
	if err := s.SetPresence(testPayload()); err == nil {
		t.Fatal("expected error from broken connection")
	}

	// Next call reconnects.
	if err := s.SetPresence(testPayload()); err != nil {
		t.Fatalf("SetPresence after reconnect: %v", err)
	}
	if connectCount != 2 {
		t.Errorf("expected 2 connects, got %d", connectCount)
	}
}

func TestSink_ConcurrentSetAndClear(t *testing.T) {
	// Rebuild cycles emit while shutdown and source switches clear, from
	// different goroutines; intermittent send failures force reconnects
	// in the middle of it. Must survive the race detector.
	var fake fakeRPC
	s := &Sink{
		appID:  "test",
		logger: zerolog.Nop(),
		connect: func(string) (rpcClient, error) {
			return &fake, nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_ = s.SetPresence(testPayload())
		}()
		go func() {
			defer wg.Done()
			_ = s.Clear()
		}()
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				fake.setFailNext(errors.New("broken pipe"))
			}
		}(i)
	}
	wg.Wait()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestClear_NoOpWhenDisconnected(t *testing.T) {
	s, fake := newTestSink()

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(fake.activities) != 0 {
		t.Error("Clear before connecting should not dial")
	}
}

func TestClear_SendsEmptyActivity(t *testing.T) {
	s, fake := newTestSink()

	_ = s.SetPresence(testPayload())
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(fake.activities) != 2 {
		t.Fatalf("expected 2 SetActivity calls, got %d", len(fake.activities))
	}
	if fake.activities[1].Details != "" {
		t.Errorf("clear activity should be empty, got details %q", fake.activities[1].Details)
	}
}
