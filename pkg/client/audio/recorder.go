// Package audio captures voice clips for voice messages.
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRecording  = errors.New("already recording")
	ErrNotRecording      = errors.New("not recording")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrEmptyClip         = errors.New("no audio captured")
)

// State is the recorder's position in its Idle -> Recording -> Idle cycle
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Capture is an open recording handle
type Capture interface {
	// Stop ends the capture and returns the recorded bytes
	Stop() ([]byte, error)
	// Close releases the device without keeping the audio
	Close() error
}

// Device opens captures
type Device interface {
	Open(ctx context.Context) (Capture, error)
}

// Clip is a finished recording ready to upload
type Clip struct {
	Data     []byte
	FileName string
	MimeType string
	Duration time.Duration
}

// Recorder owns at most one capture at a time. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	device   Device
	mimeType string
	now      func() time.Time

	state     State
	opening   bool
	capture   Capture
	cancel    context.CancelFunc
	startedAt time.Time
}

// NewRecorder creates an idle recorder on device
func NewRecorder(device Device, mimeType string) *Recorder {
	if mimeType == "" {
		mimeType = "audio/wav"
	}
	return &Recorder{device: device, mimeType: mimeType, now: time.Now}
}

// State returns the current state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns how long the current recording has been running
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return 0
	}
	return r.now().Sub(r.startedAt)
}

// Start opens the device. On failure the recorder stays idle.
// The device is opened without holding r.mu.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateRecording || r.opening {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	if r.device == nil {
		r.mu.Unlock()
		return ErrDeviceUnavailable
	}
	r.opening = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	capture, err := r.device.Open(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opening = false
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start recording: %w", err)
	}

	r.state = StateRecording
	r.capture = capture
	r.cancel = cancel
	r.startedAt = r.now()
	return nil
}

// Stop ends the recording and returns the clip. The device is released whether or not it succeeds.
// The device is flushed after r.mu is released, so State stays responsive meanwhile.
func (r *Recorder) Stop() (Clip, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return Clip{}, ErrNotRecording
	}
	capture, cancel, started := r.capture, r.cancel, r.startedAt
	r.reset()
	r.mu.Unlock()

	data, err := capture.Stop()
	cancel()
	if err != nil {
		return Clip{}, fmt.Errorf("failed to stop recording: %w", err)
	}
	if len(data) == 0 {
		return Clip{}, ErrEmptyClip
	}

	return Clip{
		Data:     data,
		FileName: "voice-" + uuid.NewString() + ".wav",
		MimeType: r.mimeType,
		Duration: r.now().Sub(started),
	}, nil
}

// Cancel discards the current recording. It is a no-op when idle.
func (r *Recorder) Cancel() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil
	}
	capture, cancel := r.capture, r.cancel
	r.reset()
	r.mu.Unlock()

	err := capture.Close()
	cancel()
	if err != nil {
		return fmt.Errorf("failed to release audio device: %w", err)
	}
	return nil
}

// reset returns to idle. Callers hold r.mu.
func (r *Recorder) reset() {
	r.state = StateIdle
	r.capture = nil
	r.cancel = nil
	r.startedAt = time.Time{}
}
