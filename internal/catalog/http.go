package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chchsunny/PcWeb/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Catalog *Service
	Log     *zap.Logger

	// SearchLimiter throttles /store/search per client IP when set.
	SearchLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(notFound)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Catalog.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/parts", func(pr chi.Router) {
		pr.Get("/", s.list)
		pr.Post("/", s.create)
		pr.Get("/{id:[0-9]+}", s.get)
		pr.Put("/{id:[0-9]+}", s.update)
		pr.Delete("/{id:[0-9]+}", s.delete)
	})

	r.Route("/store", func(sr chi.Router) {
		sr.Get("/parts", s.storeParts)
		sr.Post("/build/calculate", s.calculate)
		sr.Get("/categories", s.categories)

		search := http.HandlerFunc(s.search)
		if s.SearchLimiter != nil {
			sr.With(s.SearchLimiter.Middleware).Get("/search", search)
		} else {
			sr.Get("/search", search)
		}
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	parts, err := s.Catalog.List(r.Context())
	if err != nil {
		s.fail(w, r, "list parts failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, parts)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	p, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get part failed", err, zap.Int("id", id))
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in Part
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Catalog.Create(r.Context(), in)
	if err != nil {
		s.fail(w, r, "create part failed", err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+strconv.Itoa(p.ID))
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var in Part
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if err := s.Catalog.Update(r.Context(), id, in); err != nil {
		s.fail(w, r, "update part failed", err, zap.Int("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := s.Catalog.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "delete part failed", err, zap.Int("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeParts(w http.ResponseWriter, r *http.Request) {
	parts, err := s.Catalog.StoreParts(r.Context())
	if err != nil {
		s.fail(w, r, "store parts failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, parts)
}

type buildReq struct {
	PartIDs []int `json:"partIds"`
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	var req buildReq
	if err := kit.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	b, err := s.Catalog.CalculateBuild(r.Context(), req.PartIDs)
	if err != nil {
		s.fail(w, r, "calculate build failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, b)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	parts, err := s.Catalog.Search(r.Context(), q)
	if err != nil {
		s.fail(w, r, "search parts failed", err, zap.String("q", q))
		return
	}
	kit.WriteJSON(w, http.StatusOK, parts)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Catalog.Categories(r.Context())
	if err != nil {
		s.fail(w, r, "list categories failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, cats)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	switch {
	case errors.Is(err, ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, ErrBadRequest):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		if s.Log != nil {
			s.Log.Error(msg, append(fields, zap.Error(err))...)
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

// notFound answers 404 without a body.
func notFound(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNotFound)
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
