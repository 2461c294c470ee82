package utils

import (
	"net/http"
	"sync"

	_ "github.com/akolanti/DocuMind/cmd/api/docs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

var once sync.Once
var router *chi.Mux

func GetNewUUID() string {
	return uuid.New().String()
}

type RouterClient struct {
	Router *chi.Mux
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// GetRoutePattern returns the matched route, e.g. /documents/{id}.
func GetRoutePattern(request *http.Request) string {
	if rctx := chi.RouteContext(request.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return request.URL.Path
}

func GetRouter() RouterClient {
	once.Do(func() {
		router = NewRouter()
	})

	return RouterClient{Router: router}
}

// NewRouter builds a router with swagger and prometheus mounted.
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	InitSwagger(r)
	//register prometheus
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func InitSwagger(r *chi.Mux) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
