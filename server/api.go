// Package server exposes a playback session over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/d1nch8g/chime/engine"
	"github.com/d1nch8g/chime/markup"
	"github.com/d1nch8g/chime/source"
)

// API handles HTTP control endpoints.
type API struct {
	session *engine.Session
	runs    *RunRegistry
	log     zerolog.Logger
}

// NewAPI creates a new API handler.
func NewAPI(session *engine.Session, logger zerolog.Logger) *API {
	return &API{
		session: session,
		runs:    NewRunRegistry(DefaultRunRetention),
		log:     logger,
	}
}

// SourceSpec names exactly one source. Data is base64 in JSON.
type SourceSpec struct {
	Path     string `json:"path,omitempty"`
	URL      string `json:"url,omitempty"`
	Resource string `json:"resource,omitempty"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// PlayRequest is the request body for the play endpoint.
type PlayRequest struct {
	Sources []SourceSpec `json:"sources" binding:"required,min=1"`
	NoCache bool         `json:"no_cache"`
}

// HTMLRequest is the request body for the html play endpoint.
type HTMLRequest struct {
	Markup  string `json:"markup" binding:"required"`
	Mode    string `json:"mode"` // "all" (default), "first" or "last"
	NoCache bool   `json:"no_cache"`
}

// PlayResponse is the response for play endpoints.
type PlayResponse struct {
	Status  string `json:"status"`
	RunID   string `json:"run_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// StatusResponse is the response for the status endpoint.
type StatusResponse struct {
	Playing bool `json:"playing"`
}

var errBadSource = errors.New("each source needs exactly one of path, url, resource, text or data")

func (s SourceSpec) request() (source.Request, error) {
	var reqs []source.Request
	if s.Path != "" {
		reqs = append(reqs, source.Path(s.Path))
	}
	if s.URL != "" {
		reqs = append(reqs, source.URL(s.URL))
	}
	if s.Resource != "" {
		reqs = append(reqs, source.Resource(s.Resource))
	}
	if s.Text != "" {
		reqs = append(reqs, source.Speech(s.Text))
	}
	if len(s.Data) > 0 {
		reqs = append(reqs, source.Bytes(s.Data))
	}
	if len(reqs) != 1 {
		return source.Request{}, errBadSource
	}
	return reqs[0], nil
}

// Play starts a sequence over the given sources.
func (a *API) Play(c *gin.Context) {
	var req PlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PlayResponse{Status: "error", Message: "invalid request: " + err.Error()})
		return
	}

	reqs := make([]source.Request, 0, len(req.Sources))
	for _, spec := range req.Sources {
		r, err := spec.request()
		if err != nil {
			c.JSON(http.StatusBadRequest, PlayResponse{Status: "error", Message: err.Error()})
			return
		}
		if req.NoCache {
			r = r.WithoutCache()
		}
		reqs = append(reqs, r)
	}

	id := a.runs.Begin(len(reqs))
	a.log.Info().Str("run", id).Int("items", len(reqs)).Msg("play request")
	a.session.PlaySequence(context.Background(), reqs, a.runs.Step(id))

	c.JSON(http.StatusAccepted, PlayResponse{Status: "accepted", RunID: id})
}

// PlayHTML plays the audio elements found in markup.
func (a *API) PlayHTML(c *gin.Context) {
	var req HTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PlayResponse{Status: "error", Message: "invalid request: " + err.Error()})
		return
	}

	urls := markup.ExtractURLs(req.Markup)
	useCache := !req.NoCache
	ctx := context.Background()

	switch req.Mode {
	case "", "all":
		id := a.runs.Begin(len(urls))
		a.session.PlayHTML(ctx, req.Markup, useCache, a.runs.Step(id))
		c.JSON(http.StatusAccepted, PlayResponse{Status: "accepted", RunID: id})
	case "first", "last":
		if len(urls) == 0 {
			c.JSON(http.StatusUnprocessableEntity, PlayResponse{Status: "error", Message: engine.ErrNoValidSourcesFound.Error()})
			return
		}
		id := a.runs.Begin(1)
		if req.Mode == "first" {
			a.session.PlayFirst(ctx, req.Markup, useCache, a.runs.Done(id))
		} else {
			a.session.PlayLast(ctx, req.Markup, useCache, a.runs.Done(id))
		}
		c.JSON(http.StatusAccepted, PlayResponse{Status: "accepted", RunID: id})
	default:
		c.JSON(http.StatusBadRequest, PlayResponse{Status: "error", Message: "unknown mode: " + req.Mode})
	}
}

// Pause pauses the active clip.
func (a *API) Pause(c *gin.Context) {
	a.session.Pause()
	c.JSON(http.StatusOK, PlayResponse{Status: "paused"})
}

// Resume resumes the active clip.
func (a *API) Resume(c *gin.Context) {
	a.session.Resume()
	c.JSON(http.StatusOK, PlayResponse{Status: "resumed"})
}

// Stop stops the active clip.
func (a *API) Stop(c *gin.Context) {
	a.session.Stop()
	c.JSON(http.StatusOK, PlayResponse{Status: "stopped"})
}

// Status reports whether anything is playing.
func (a *API) Status(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{Playing: a.session.IsPlaying()})
}

// ClearCache empties the tier named by the "tier" query parameter.
func (a *API) ClearCache(c *gin.Context) {
	switch tier := c.DefaultQuery("tier", "all"); tier {
	case "local":
		a.session.ClearLocalCache()
	case "remote":
		a.session.ClearRemoteCache()
	case "all":
		a.session.ClearCache()
	default:
		c.JSON(http.StatusBadRequest, PlayResponse{Status: "error", Message: "unknown tier: " + tier})
		return
	}
	c.JSON(http.StatusOK, PlayResponse{Status: "cleared"})
}

// Run reports the progress of a run started by a play endpoint.
func (a *API) Run(c *gin.Context) {
	run, ok := a.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, PlayResponse{Status: "error", Message: "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}
