// Package server exposes the agent runner over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"dbbenchtools/api/benchapi"
	"dbbenchtools/internal/runner"
)

type Handler struct {
	runner  *runner.Runner
	metrics *Metrics
}

type okResponse struct {
	Status string `json:"status"`
}

var ok = okResponse{Status: "ok"}

func NewHandler(r *runner.Runner, reg *prometheus.Registry) *Handler {
	return &Handler{
		runner:  r,
		metrics: newMetrics(reg),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", routeListHandler(r))
	r.Get("/status", statusHandler(func(ctx context.Context) (benchapi.APIWorkerStatus, error) {
		return h.runner.Status(ctx), nil
	}))
	r.Get("/healthz", statusHandler(func(ctx context.Context) (benchapi.StatusCode, error) {
		return h.runner.Healthcheck(ctx)
	}))

	work := chi.NewRouter()
	work.Post("/run", requHandler(func(ctx context.Context, requ benchapi.RunRequest) (okResponse, error) {
		h.metrics.runsStarted.WithLabelValues(string(benchapi.TaskRun)).Inc()
		return ok, h.runner.SubmitRun(ctx, requ)
	}))
	work.Post("/abtest", requHandler(func(ctx context.Context, requ benchapi.ABTestRequest) (okResponse, error) {
		h.metrics.runsStarted.WithLabelValues(string(benchapi.TaskABTest)).Inc()
		return ok, h.runner.SubmitABTest(ctx, requ)
	}))
	work.Post("/stop", statusHandler(func(ctx context.Context) (okResponse, error) {
		return ok, h.runner.CancelActive(ctx)
	}))
	work.Get("/", routeListHandler(work))
	r.Mount("/work", work)
}

func routeListHandler(router chi.Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// list of available endpoints

		type routePath struct {
			Method string `json:"method"`
			Path   string `json:"path"`
		}

		var routes []routePath
		err := chi.Walk(router, func(method, route string, handler http.Handler, middlewares ...func(http.Handler) http.Handler) error {
			routes = append(routes, routePath{Method: method, Path: route})
			return nil
		})

		type response struct {
			Routes []routePath `json:"routes"`
		}
		writeResponse(w, response{Routes: routes}, err)
	}
}

func statusHandler[O any](fn func(context.Context) (O, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		resp, err := fn(r.Context())
		writeResponse(w, resp, err)
	}
}

func requHandler[I any, O any](fn func(ctx context.Context, requ I) (O, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var requ I

		if r.ContentLength > 0 {
			if r.Header.Get("Content-Type") != "application/json" {
				writeError(w, benchapi.ErrorBadRequest(fmt.Errorf("invalid content type: %s", r.Header.Get("Content-Type"))))
				return
			}

			if err := json.NewDecoder(r.Body).Decode(&requ); err != nil {
				writeError(w, benchapi.ErrorBadRequest(fmt.Errorf("failed to decode request: %w", err)))
				return
			}
		}

		resp, err := fn(r.Context(), requ)
		writeResponse(w, resp, err)
	}
}

func writeResponse[T any](w http.ResponseWriter, resp T, err error) {
	if err != nil {
		writeError(w, err)
		return
	}

	enc, err := json.Marshal(resp)
	if err != nil {
		writeError(w, fmt.Errorf("failed to marshal response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(enc)
}

func writeError(w http.ResponseWriter, err error) {
	logrus.WithError(err).Error("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(getErrorStatusCode(err))

	enc, _ := json.Marshal(map[string]string{"error": getDisplayError(err).Error()})
	w.Write(enc)
}
