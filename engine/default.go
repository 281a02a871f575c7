package engine

import (
	"sync"

	"github.com/d1nch8g/chime/logger"
	"github.com/d1nch8g/chime/source"
	"github.com/d1nch8g/chime/sound"
)

// defaultSession is built on first use and never torn down. It behaves
// exactly like a session from NewSession; callers that need independent
// playback should construct their own.
var defaultSession = sync.OnceValue(func() *Session {
	resolver := source.NewResolver(source.ResolverConfig{Logger: logger.Component("resolver")})
	decoder := sound.NewPortaudioDecoder(sound.GetDefaultConfig())
	return NewSession(resolver, decoder, logger.Component("session"))
})

// Default returns the process-wide session.
func Default() *Session {
	return defaultSession()
}
