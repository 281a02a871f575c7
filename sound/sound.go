package sound

import "errors"

var (
	ErrDecodeFailed        = errors.New("audio data could not be decoded")
	ErrPlaybackStartFailed = errors.New("playback could not be started")
	ErrPlaybackFailed      = errors.New("playback failed")
)

// Decoder turns an encoded buffer into a playable handle.
type Decoder interface {
	// Decode fails with ErrDecodeFailed when data is not playable audio
	Decode(data []byte) (Handle, error)
}

// Handle is one decoded clip bound to an output device.
type Handle interface {
	// Start begins playback. On success done is called exactly once from
	// another goroutine when the clip ends (ok) or the device fails (!ok).
	// A handle that is stopped first never calls done.
	Start(done func(ok bool)) error

	Pause()
	Resume()

	// Stop halts playback and releases the device. Safe to call repeatedly.
	Stop()

	// IsPlaying reports whether the handle is started, not paused and not
	// yet finished or stopped.
	IsPlaying() bool
}

type PlayerConfig struct {
	FramesPerBuffer int
}
