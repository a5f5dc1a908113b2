package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/grephite/pkg/colormap"
	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/script"
)

// maxBodyBytes bounds request bodies, inline script sources included.
const maxBodyBytes = 1 << 20

type pathRequest struct {
	Source *graph.NodeID `json:"source" validate:"required"`
}

type physicsRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type loadRequest struct {
	Name   string `json:"name" validate:"required,max=256"`
	Source string `json:"source,omitempty"`
}

type speedRequest struct {
	Speed float64 `json:"speed" validate:"gte=0.1,lte=1000"`
}

type colorRequest struct {
	Color string `json:"color" validate:"required"`
}

type nodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type edgeRequest struct {
	From   graph.NodeID `json:"from" validate:"required"`
	To     graph.NodeID `json:"to" validate:"required"`
	Weight *float64     `json:"weight,omitempty" validate:"omitempty,gt=0"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// =============================================================================
// Frame & layout
// =============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": s.world.Ticks()})
}

func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.world.View())
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.world.LayoutParams())
}

func (s *Server) putLayout(w http.ResponseWriter, r *http.Request) {
	p := s.world.LayoutParams()
	if !s.decode(w, r, &p) {
		return
	}
	s.world.SetLayoutParams(p)
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) setPhysics(w http.ResponseWriter, r *http.Request) {
	var req physicsRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.world.SetPhysics(*req.Enabled)
	s.respondJSON(w, http.StatusOK, s.world.LayoutParams())
}

// =============================================================================
// Path
// =============================================================================

func (s *Server) getPath(w http.ResponseWriter, r *http.Request) {
	f := s.world.View()
	if !f.HasPath {
		s.respondError(w, errors.New(errors.ErrCodeNodeNotFound, "no path result"))
		return
	}
	dist := make(map[string]*float64, len(f.Nodes))
	for _, n := range f.Nodes {
		dist[strconv.FormatUint(uint64(n.ID), 10)] = n.Distance
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"source":       f.Source,
		"max_distance": f.MaxDistance,
		"distances":    dist,
	})
}

// requestPath queues a search; the result is visible after the next tick.
func (s *Server) requestPath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.world.HasNode(*req.Source) {
		s.respondError(w, errors.New(errors.ErrCodeNodeNotFound, "node %d not found", *req.Source))
		return
	}
	s.world.RequestPath(*req.Source)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) clearPath(w http.ResponseWriter, r *http.Request) {
	s.world.ClearPath()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Scripts
// =============================================================================

func (s *Server) listScripts(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if s.lib != nil {
		listed, err := s.lib.List()
		if err != nil {
			s.respondError(w, err)
			return
		}
		names = append(names, listed...)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"scripts": names})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.world.Scripts().Session()
	if !ok {
		s.respondError(w, errors.New(errors.ErrCodeNoScriptActive, "no script loaded"))
		return
	}
	s.respondJSON(w, http.StatusOK, sessionResponse(sess, s.world.Scripts()))
}

// loadScript loads an inline source, or the named script from the library
// when no source is given.
func (s *Server) loadScript(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !s.decode(w, r, &req) {
		return
	}
	src := req.Source
	if src == "" {
		if s.lib == nil {
			s.respondError(w, errors.New(errors.ErrCodeUnsupported, "no scripts directory configured"))
			return
		}
		var err error
		if src, err = s.lib.Read(req.Name); err != nil {
			s.respondError(w, err)
			return
		}
	}
	if err := s.world.LoadScript(r.Context(), req.Name, src); err != nil {
		s.respondError(w, err)
		return
	}
	sess, _ := s.world.Scripts().Session()
	s.respondJSON(w, http.StatusCreated, sessionResponse(sess, s.world.Scripts()))
}

func (s *Server) stepScript(w http.ResponseWriter, r *http.Request) {
	if s.world.Scripts().State() == script.Idle {
		s.respondError(w, errors.New(errors.ErrCodeNoScriptActive, "no script loaded"))
		return
	}
	s.world.RequestStep()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) toggleScript(w http.ResponseWriter, r *http.Request) {
	running := s.world.Scripts().Toggle()
	s.respondJSON(w, http.StatusOK, map[string]any{"running": running})
}

func (s *Server) stopScript(w http.ResponseWriter, r *http.Request) {
	s.world.Scripts().Stop()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setSpeed(w http.ResponseWriter, r *http.Request) {
	var req speedRequest
	if !s.decode(w, r, &req) {
		return
	}
	speed := s.world.Scripts().SetSpeed(req.Speed)
	s.respondJSON(w, http.StatusOK, map[string]any{"speed": speed})
}

func sessionResponse(sess script.Session, h *script.Host) map[string]any {
	return map[string]any{
		"session": sess,
		"state":   sess.State.String(),
		"running": h.Running(),
		"speed":   h.Speed(),
	}
}

// =============================================================================
// Edits
// =============================================================================

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req nodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := s.world.AddNode(graph.Vec2{X: req.X, Y: req.Y})
	s.respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) deleteNode(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	if !s.world.DeleteNode(id) {
		s.respondError(w, errors.New(errors.ErrCodeNodeNotFound, "node %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// setColor queues a set_color command on the same channel scripts use, so
// the color shows up after the next tick.
func (s *Server) setColor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	var req colorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if _, err := colormap.ParseHex(req.Color); err != nil {
		s.respondError(w, err)
		return
	}
	if !s.world.HasNode(id) {
		s.respondError(w, errors.New(errors.ErrCodeNodeNotFound, "node %d not found", id))
		return
	}
	s.world.Publish(script.SetColor(id, req.Color))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) resetColor(w http.ResponseWriter, r *http.Request) {
	id, ok := s.nodeParam(w, r)
	if !ok {
		return
	}
	s.world.Publish(script.ResetColor(id))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.world.AddEdge(req.From, req.To, req.Weight)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) deleteEdge(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "edgeID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid edge id %q", raw))
		return
	}
	if !s.world.DeleteEdge(graph.EdgeID(id)) {
		s.respondError(w, errors.New(errors.ErrCodeNodeNotFound, "edge %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) nodeParam(w http.ResponseWriter, r *http.Request) (graph.NodeID, bool) {
	raw := chi.URLParam(r, "nodeID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "invalid node id %q", raw))
		return 0, false
	}
	return graph.NodeID(id), true
}

// decode reads a JSON body into v and validates it. On failure it writes the
// error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return false
	}
	if err := errors.ValidateStruct(errors.ErrCodeInvalidInput, v); err != nil {
		s.respondError(w, err)
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.respondJSON(w, status, errorResponse{Error: string(code), Message: errors.UserMessage(err)})
}

// statusFor maps error codes and graph sentinels to HTTP statuses.
func statusFor(err error) int {
	switch {
	case stderrors.Is(err, graph.ErrUnknownNode):
		return http.StatusNotFound
	case stderrors.Is(err, graph.ErrInvalidWeight):
		return http.StatusBadRequest
	case errors.IsScriptFault(err):
		return http.StatusUnprocessableEntity
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidColor, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidScript, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeNoScriptActive:
		return http.StatusConflict
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
