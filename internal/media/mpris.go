package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisObjectPath = "/org/mpris/MediaPlayer2"
	mprisPlayerIntf = "org.mpris.MediaPlayer2.Player"
)

// MPRISSource reads playback state from an MPRIS player on the D-Bus
// session bus and surfaces PropertiesChanged signals as change events.
type MPRISSource struct {
	conn    *dbus.Conn
	player  string // well-known player name suffix, e.g. "spotify"; empty = auto
	signals chan *dbus.Signal
	changed chan struct{}
	done    chan struct{}
	logger  zerolog.Logger
}

// NewMPRISSource connects to the session bus and subscribes to player
// property changes. If player is empty, the first MPRIS player found on
// the bus is used for each snapshot.
func NewMPRISSource(player string, logger zerolog.Logger) (*MPRISSource, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(mprisObjectPath),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to add signal match: %w", err)
	}

	s := &MPRISSource{
		conn:    conn,
		player:  player,
		signals: make(chan *dbus.Signal, 16),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
		logger:  logger.With().Str("component", "mpris").Logger(),
	}
	conn.Signal(s.signals)
	go s.pump()

	return s, nil
}

// pump converts raw D-Bus signals into coalesced change notifications.
// The changed channel has capacity 1; a signal arriving while one is
// already pending is dropped, which is fine because consumers re-query.
func (s *MPRISSource) pump() {
	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			if sig == nil || sig.Path != mprisObjectPath {
				continue
			}
			select {
			case s.changed <- struct{}{}:
			default:
			}
		}
	}
}

// Changed returns the change notification channel.
func (s *MPRISSource) Changed() <-chan struct{} {
	return s.changed
}

// Close tears down the bus connection.
func (s *MPRISSource) Close() error {
	close(s.done)
	s.conn.RemoveSignal(s.signals)
	return s.conn.Close()
}

// Snapshot queries the player's current state. Returns nil (no error)
// when no matching player is on the bus.
func (s *MPRISSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	busName, err := s.resolvePlayer()
	if err != nil {
		return nil, err
	}
	if busName == "" {
		return nil, nil
	}

	obj := s.conn.Object(busName, mprisObjectPath)

	status, err := obj.GetProperty(mprisPlayerIntf + ".PlaybackStatus")
	if err != nil {
		return nil, fmt.Errorf("failed to read playback status: %w", err)
	}

	meta, err := obj.GetProperty(mprisPlayerIntf + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	snap := &Snapshot{
		Status:   parsePlaybackStatus(status),
		SourceID: strings.TrimPrefix(busName, mprisPrefix),
	}

	if m, ok := meta.Value().(map[string]dbus.Variant); ok {
		snap.Title = variantString(m["xesam:title"])
		snap.Album = variantString(m["xesam:album"])
		snap.Artist = firstArtist(m["xesam:artist"])
		snap.Duration = time.Duration(variantInt64(m["mpris:length"])) * time.Microsecond
		snap.ThumbnailRef = variantString(m["mpris:artUrl"])
	}

	// Position is a live property, not part of Metadata.
	if pos, err := obj.GetProperty(mprisPlayerIntf + ".Position"); err == nil {
		snap.Position = time.Duration(variantInt64(pos)) * time.Microsecond
	} else {
		s.logger.Debug().Err(err).Msg("Player does not expose position")
	}

	return snap, nil
}

// resolvePlayer returns the bus name to query, or "" if no player exists.
func (s *MPRISSource) resolvePlayer() (string, error) {
	if s.player != "" {
		return mprisPrefix + s.player, nil
	}

	var names []string
	if err := s.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return "", fmt.Errorf("failed to list bus names: %w", err)
	}
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			return name, nil
		}
	}
	return "", nil
}

func parsePlaybackStatus(v dbus.Variant) Status {
	switch variantString(v) {
	case "Playing":
		return StatusPlaying
	case "Paused":
		return StatusPaused
	case "Stopped":
		return StatusStopped
	default:
		return StatusUnknown
	}
}

func variantString(v dbus.Variant) string {
	s, _ := v.Value().(string)
	return s
}

func variantInt64(v dbus.Variant) int64 {
	switch n := v.Value().(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int32:
		return int64(n)
	case uint32:
		return int64(n)
	default:
		return 0
	}
}

func firstArtist(v dbus.Variant) string {
	switch a := v.Value().(type) {
	case []string:
		if len(a) > 0 {
			return a[0]
		}
	case string:
		return a
	}
	return ""
}
