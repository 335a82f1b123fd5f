package entities

import (
	"fmt"
	"time"
)

// CaptureState is the state of the identity video capture.
type CaptureState string

const (
	CaptureIdle      CaptureState = "IDLE"
	CaptureStreaming CaptureState = "STREAMING"
	CaptureRecording CaptureState = "RECORDING"
	CaptureCaptured  CaptureState = "CAPTURED"
)

// MaxRecordingSeconds is the recording cap.
const MaxRecordingSeconds = 30

// VideoMimeType is the declared type of the finalized artifact.
const VideoMimeType = "video/mp4"

// VideoArtifact is the finalized identity video. It lives in memory only.
type VideoArtifact struct {
	MimeType   string    `json:"mimeType"`
	Data       []byte    `json:"-"`
	Size       int       `json:"size"`
	Seconds    int       `json:"seconds"`
	CapturedAt time.Time `json:"capturedAt"`
}

// DeviceGrant is the outcome of the camera permission prompt as reported
// by the client.
type DeviceGrant struct {
	Granted bool   `json:"granted"`
	Error   string `json:"error"`
}

// CaptureSnapshot is the externally visible state of a capture session.
type CaptureSnapshot struct {
	State       CaptureState   `json:"state"`
	Elapsed     int            `json:"elapsed"`
	Label       string         `json:"label,omitempty"`
	CameraError string         `json:"cameraError,omitempty"`
	Video       *VideoArtifact `json:"video,omitempty"`
}

// RecordingLabel renders the on-screen recording indicator.
func RecordingLabel(elapsed int) string {
	return fmt.Sprintf("REC %ds / %ds", elapsed, MaxRecordingSeconds)
}
