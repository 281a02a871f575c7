package sound

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortaudioDecoder decodes mp3/wav buffers into handles that play on the
// default output device.
type PortaudioDecoder struct {
	config   PlayerConfig
	initOnce sync.Once
	initErr  error
}

func NewPortaudioDecoder(config PlayerConfig) *PortaudioDecoder {
	if config.FramesPerBuffer <= 0 {
		config.FramesPerBuffer = GetDefaultConfig().FramesPerBuffer
	}
	return &PortaudioDecoder{config: config}
}

func GetDefaultConfig() PlayerConfig {
	return PlayerConfig{
		FramesPerBuffer: 1024,
	}
}

// Initialize initializes PortAudio. It is called lazily by the first
// Start, so calling it up front only surfaces device errors earlier.
func (d *PortaudioDecoder) Initialize() error {
	d.initOnce.Do(func() {
		d.initErr = portaudio.Initialize()
	})
	return d.initErr
}

func (d *PortaudioDecoder) Terminate() {
	portaudio.Terminate()
}

func (d *PortaudioDecoder) Decode(data []byte) (Handle, error) {
	audio, err := decodePCM(data)
	if err != nil {
		return nil, err
	}
	return &portaudioHandle{
		decoder:  d,
		audio:    audio,
		quit:     make(chan struct{}),
		released: make(chan struct{}),
	}, nil
}

type portaudioHandle struct {
	decoder *PortaudioDecoder
	audio   pcm

	mu       sync.Mutex
	stream   *portaudio.Stream
	buffer   []int16
	started  bool
	paused   bool
	stopped  bool
	finished bool
	resumeCh chan struct{}
	quit     chan struct{}
	released chan struct{} // closed by the playback goroutine once the stream is closed
	done     func(ok bool)
}

func (h *portaudioHandle) Start(done func(ok bool)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started || h.stopped {
		return fmt.Errorf("%w: handle already used", ErrPlaybackStartFailed)
	}
	if err := h.decoder.Initialize(); err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackStartFailed, err)
	}

	frames := h.decoder.config.FramesPerBuffer
	h.buffer = make([]int16, frames*h.audio.channels)
	stream, err := portaudio.OpenDefaultStream(0, h.audio.channels, float64(h.audio.sampleRate), frames, h.buffer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPlaybackStartFailed, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: %w", ErrPlaybackStartFailed, err)
	}

	h.stream = stream
	h.started = true
	h.done = done
	go h.run()
	return nil
}

func (h *portaudioHandle) run() {
	samples := h.audio.samples
	bufferLen := len(h.buffer)

	for pos := 0; pos < len(samples); pos += bufferLen {
		if !h.waitWhilePaused() {
			h.release()
			return
		}

		end := min(pos+bufferLen, len(samples))
		n := copy(h.buffer, samples[pos:end])
		// Zero-fill the tail of the last buffer
		clear(h.buffer[n:])

		if err := h.stream.Write(); err != nil {
			h.finish(false)
			return
		}
	}
	h.finish(true)
}

// waitWhilePaused blocks while paused and reports false once stopped.
func (h *portaudioHandle) waitWhilePaused() bool {
	for {
		h.mu.Lock()
		paused, resume := h.paused, h.resumeCh
		h.mu.Unlock()

		if !paused {
			select {
			case <-h.quit:
				return false
			default:
				return true
			}
		}

		select {
		case <-h.quit:
			return false
		case <-resume:
		}
	}
}

func (h *portaudioHandle) finish(ok bool) {
	h.mu.Lock()
	stopped := h.stopped
	h.finished = true
	done := h.done
	h.mu.Unlock()

	h.release()
	if !stopped && done != nil {
		done(ok)
	}
}

// release runs exactly once per started handle, on the playback goroutine.
func (h *portaudioHandle) release() {
	if h.stream != nil {
		h.stream.Stop()
		h.stream.Close()
	}
	close(h.released)
}

func (h *portaudioHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started || h.paused || h.stopped || h.finished {
		return
	}
	h.paused = true
	h.resumeCh = make(chan struct{})
}

func (h *portaudioHandle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.paused {
		return
	}
	h.paused = false
	close(h.resumeCh)
}

// Stop returns once the output stream is closed, so the device is free for
// the next clip. The playback goroutine notices quit between buffer writes
// and releases the stream itself; release happens before done would run,
// which keeps Stop safe to call while holding a lock done also takes.
func (h *portaudioHandle) Stop() {
	h.mu.Lock()
	if !h.stopped && !h.finished {
		h.stopped = true
		close(h.quit)
	}
	started := h.started
	h.mu.Unlock()

	if started {
		<-h.released
	}
}

func (h *portaudioHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started && !h.paused && !h.stopped && !h.finished
}
