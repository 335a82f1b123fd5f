package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chamado.backend/internal/domain/entities"
	domainerrors "chamado.backend/internal/domain/errors"
	"chamado.backend/internal/domain/repositories"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrStreamStopped    = errors.New("media stream stopped")
	ErrRecorderStopped  = errors.New("recorder stopped")
)

// Track kinds of a relayed stream.
const (
	TrackVideo = "video"
	TrackAudio = "audio"
)

// RelaySource is a MediaSource whose device lives in the client. The
// client's permission result is the grant and uploaded chunks are the
// encoded stream.
type RelaySource struct {
	maxBytes int
}

// NewRelaySource creates a source whose recordings are capped at maxBytes.
// A non-positive cap disables the limit.
func NewRelaySource(maxBytes int) *RelaySource {
	return &RelaySource{maxBytes: maxBytes}
}

// Open returns a live stream when the client granted access.
func (s *RelaySource) Open(ctx context.Context, grant entities.DeviceGrant) (repositories.MediaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !grant.Granted {
		reason := strings.TrimSpace(grant.Error)
		if reason == "" {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, reason)
	}
	return &RelayStream{
		maxBytes: s.maxBytes,
		tracks:   map[string]bool{TrackVideo: true, TrackAudio: true},
	}, nil
}

// RelayStream is one granted camera session.
type RelayStream struct {
	mu       sync.Mutex
	maxBytes int
	tracks   map[string]bool
	recorder *relayRecorder
}

func (s *RelayStream) NewRecorder() (repositories.MediaRecorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.activeLocked() {
		return nil, ErrStreamStopped
	}
	if s.recorder != nil {
		s.recorder.discard()
	}
	s.recorder = &relayRecorder{maxBytes: s.maxBytes}
	return s.recorder, nil
}

// Stop ends all tracks.
func (s *RelayStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for kind := range s.tracks {
		s.tracks[kind] = false
	}
}

func (s *RelayStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// LiveTracks returns the number of tracks still running.
func (s *RelayStream) LiveTracks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, live := range s.tracks {
		if live {
			n++
		}
	}
	return n
}

func (s *RelayStream) activeLocked() bool {
	for _, live := range s.tracks {
		if live {
			return true
		}
	}
	return false
}

type relayRecorder struct {
	mu       sync.Mutex
	maxBytes int
	size     int
	chunks   [][]byte
	stopped  bool
}

func (r *relayRecorder) Write(chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRecorderStopped
	}
	if r.maxBytes > 0 && r.size+len(chunk) > r.maxBytes {
		return domainerrors.ErrRecordingTooLarge
	}
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	r.chunks = append(r.chunks, cp)
	r.size += len(cp)
	return nil
}

// Stop finalizes the recording into a single buffer.
func (r *relayRecorder) Stop() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, ErrRecorderStopped
	}
	r.stopped = true
	out := bytes.Join(r.chunks, nil)
	r.chunks = nil
	return out, nil
}

func (r *relayRecorder) discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.chunks = nil
}
