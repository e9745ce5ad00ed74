package discord

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/kwarren/resonance/internal/presence"
)

const activityTypeListening = 2

type rpcClient interface {
	SetActivity(Activity) error
	Close() error
}

// Sink delivers presence payloads over Discord IPC. It connects lazily
// on the first emission; if Discord is not running the error is
// reported to the caller, which retries on the next cycle.
//
// Emissions and clears can arrive from different goroutines (rebuild
// cycles vs. shutdown and source switches), so the connection is
// mutex-guarded.
type Sink struct {
	appID   string
	name    string
	logger  zerolog.Logger
	connect func(string) (rpcClient, error)

	mu     sync.Mutex
	client rpcClient
}

// NewSink creates a Sink for the given Discord application ID. name is
// shown as the activity name ("Listening to <name>").
func NewSink(appID, name string, logger zerolog.Logger) *Sink {
	return &Sink{
		appID:  appID,
		name:   name,
		logger: logger.With().Str("component", "discord").Logger(),
		connect: func(appID string) (rpcClient, error) {
			return ipcConnect(appID)
		},
	}
}

// SetPresence sends the payload as a Rich Presence activity. On send
// failure the connection is dropped so the next call reconnects.
func (s *Sink) SetPresence(p presence.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnectedLocked(); err != nil {
		return err
	}

	if err := s.client.SetActivity(toActivity(p, s.name)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to set activity")
		s.dropConnectionLocked()
		return err
	}
	return nil
}

// Clear removes the current activity. A no-op when not connected.
func (s *Sink) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	if err := s.client.SetActivity(Activity{}); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to clear activity")
		s.dropConnectionLocked()
		return err
	}
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// ensureConnectedLocked dials on first use. Caller holds mu.
func (s *Sink) ensureConnectedLocked() error {
	if s.client != nil {
		return nil
	}
	client, err := s.connect(s.appID)
	if err != nil {
		return err
	}
	s.logger.Info().Msg("Connected to Discord")
	s.client = client
	return nil
}

// dropConnectionLocked discards a broken connection. Caller holds mu.
func (s *Sink) dropConnectionLocked() {
	if s.client == nil {
		return
	}
	_ = s.client.Close()
	s.client = nil
}

func toActivity(p presence.Payload, name string) Activity {
	a := Activity{
		Type:    activityTypeListening,
		Name:    name,
		Details: p.Details,
		State:   p.State,
		Assets: &Assets{
			LargeImage: p.LargeImageKey,
			LargeText:  p.LargeImageText,
			SmallImage: presence.DefaultImageKey,
			SmallText:  name,
		},
	}

	if p.Timestamps != nil {
		start := p.Timestamps.Start
		a.Timestamps = &Timestamps{Start: &start}
		if p.Timestamps.End != 0 {
			end := p.Timestamps.End
			a.Timestamps.End = &end
		}
	}

	for _, b := range p.Buttons {
		a.Buttons = append(a.Buttons, Button{Label: b.Label, URL: b.URL})
	}
	return a
}
