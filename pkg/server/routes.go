package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mercator-hq/magicbox/pkg/querystring"
	"mercator-hq/magicbox/pkg/repository"
	"mercator-hq/magicbox/pkg/storage"
	"mercator-hq/magicbox/pkg/telemetry/health"
)

// maxBodyBytes bounds the JSON payload accepted by create.
const maxBodyBytes = 1 << 20

// ListResponse is the body of a successful list.
type ListResponse struct {
	Data  []storage.Record `json:"data"`
	Count int              `json:"count"`
}

// RecordResponse is the body of a successful find or create.
type RecordResponse struct {
	Data storage.Record `json:"data"`
}

// DeleteResponse is the body of a successful delete.
type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// setupRoutes configures HTTP routes and the middleware chain. Recovery
// sits inside logging so that recovered panics are logged and counted as
// 500 answers.
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	var recorder HTTPRecorder
	if s.opts.Collector != nil {
		recorder = s.opts.Collector
	}
	r.Use(RequestIDMiddleware, LoggingMiddleware(recorder), RecoveryMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, newError(ErrorTypeNotFound, "", fmt.Sprintf("no route for %s", r.URL.Path)))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		resp := newError(ErrorTypeInvalidRequest, "", fmt.Sprintf("method %s not allowed", r.Method))
		writeJSON(w, http.StatusMethodNotAllowed, resp)
	})

	if s.opts.Checker != nil {
		r.Get("/health", s.opts.Checker.LivenessHandler())
		r.Get("/ready", s.opts.Checker.ReadinessHandler())
	}
	v := s.opts.Version
	r.Get("/version", health.VersionHandler(v.Version, v.Commit, v.BuildTime))

	if s.opts.Collector != nil && s.config.Telemetry.Metrics.Enabled {
		r.Method(http.MethodGet, s.config.Telemetry.Metrics.Path, s.opts.Collector.Handler())
	}

	base := strings.TrimSuffix(s.config.Server.BasePath, "/")
	if base == "" {
		s.registerResources(r)
	} else {
		r.Route(base, s.registerResources)
	}

	return r
}

func (s *Server) registerResources(r chi.Router) {
	r.Get("/{model}", s.handleList)
	r.Post("/{model}", s.handleCreate)
	r.Delete("/{model}", s.handleDeleteMatching)
	r.Get("/{model}/{pk}", s.handleFind)
	r.Delete("/{model}/{pk}", s.handleDeleteByPK)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r, nil)
	if !ok {
		return
	}

	records, err := repo.All(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []storage.Record{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Data: records, Count: len(records)})
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r, nil)
	if !ok {
		return
	}

	pk := chi.URLParam(r, "pk")
	rec, found, err := repo.Find(r.Context(), pk)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, newError(ErrorTypeNotFound, CodeNotFound,
			fmt.Sprintf("%s %q not found", repo.Model().Name, pk)))
		return
	}
	writeJSON(w, http.StatusOK, RecordResponse{Data: rec})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, newError(ErrorTypeInvalidRequest, CodeInvalidJSON, err.Error()))
		return
	}
	repo, ok := s.repository(w, r, body)
	if !ok {
		return
	}

	rec, err := repo.Create(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, RecordResponse{Data: rec})
}

func (s *Server) handleDeleteMatching(w http.ResponseWriter, r *http.Request) {
	s.delete(w, r, "")
}

func (s *Server) handleDeleteByPK(w http.ResponseWriter, r *http.Request) {
	s.delete(w, r, chi.URLParam(r, "pk"))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request, pk string) {
	repo, ok := s.repository(w, r, nil)
	if !ok {
		return
	}

	deleted, ok, err := repo.Delete(r.Context(), pk)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, newError(ErrorTypeNotFound, CodeNotFound, "no matching records"))
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Deleted: deleted})
}

// repository resolves the model named in the URL and binds the query
// string. It writes the error answer itself when it returns false.
func (s *Server) repository(w http.ResponseWriter, r *http.Request, body map[string]any) (*repository.Repository, bool) {
	name := chi.URLParam(r, "model")

	reg := s.holder.Registry()
	if reg == nil {
		writeError(w, newError(ErrorTypeNotFound, CodeUnknownModel, fmt.Sprintf("unknown model %q", name)))
		return nil, false
	}
	m, ok := reg.Model(name)
	if !ok {
		writeError(w, newError(ErrorTypeNotFound, CodeUnknownModel, fmt.Sprintf("unknown model %q", name)))
		return nil, false
	}

	params, err := querystring.DecodeQuery(r.URL.RawQuery)
	if err != nil {
		s.logger.WarnContext(r.Context(), "malformed query string", "error", err)
		writeError(w, newError(ErrorTypeInvalidRequest, CodeInvalidQuery, err.Error()))
		return nil, false
	}

	req := repository.RequestFromParams(params, s.config.Params, body)
	return repository.New(s.store, m, req, s.opts.Repository), true
}

// fail answers with the error returned by the repository. Errors caused by
// the request are logged at WARN, everything else at ERROR.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if repository.IsBadRequest(err) {
		s.logger.WarnContext(r.Context(), "rejected query", "error", err)
	} else {
		s.logger.ErrorContext(r.Context(), "query failed", "error", err)
	}
	writeError(w, queryError(err, s.config.Params.Filters))
}

// decodeBody reads a JSON object. An empty body yields an empty payload.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := map[string]any{}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return body, nil
}
