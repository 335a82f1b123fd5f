package repositories

import (
	"context"

	"chamado.backend/internal/domain/entities"
)

// MediaSource grants access to a camera and microphone.
type MediaSource interface {
	Open(ctx context.Context, grant entities.DeviceGrant) (MediaStream, error)
}

// MediaStream is a live camera stream. Stop ends every track and is
// idempotent.
type MediaStream interface {
	NewRecorder() (MediaRecorder, error)
	Stop()
	Active() bool
}

// MediaRecorder collects encoded chunks of a stream.
type MediaRecorder interface {
	Write(chunk []byte) error
	Stop() ([]byte, error)
}
