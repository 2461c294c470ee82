package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/akolanti/DocuMind/internal/adapter/utils"
	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/middleware"
	"github.com/akolanti/DocuMind/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

var (
	server  *http.Server
	_logger = logger_i.NewLogger("Server")
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	// StopScheduler halts polling before the workers drain.
	StopScheduler context.CancelFunc
	Scheduler     interface{ Wait() }
	CloseServices context.CancelFunc
	Timeout       time.Duration
}

// RegisterRoutes mounts every API route on r. mcpHandler may be nil.
func RegisterRoutes(r chi.Router, mcpHandler http.Handler) {
	r.Get("/health", middleware.HealthHandler)

	r.Post("/sessions", middleware.CreateSessionHandler)
	r.Get("/sessions/{id}", middleware.GetSessionHandler)
	r.Get("/sessions/{id}/messages", middleware.GetMessagesHandler)
	r.Post("/sessions/{id}/documents", middleware.UploadDocumentHandler)
	r.Get("/documents/{id}", middleware.GetDocumentHandler)

	r.Post("/chat", middleware.ChatHandler)
	r.Get("/status/{id}", middleware.GetStatusHandler)
	r.Post("/ask", middleware.AskHandler)

	if mcpHandler != nil {
		r.Handle("/mcp", middleware.Wrap(mcpHandler.ServeHTTP))
	}
}

func CreateServer(settings config.ServerSettings, mcpHandler http.Handler) {
	r := utils.GetRouter()
	RegisterRoutes(r.Router, mcpHandler)

	server = &http.Server{
		Addr:         settings.ListenAddr,
		Handler:      r.Router,
		ReadTimeout:  orDefault(settings.ReadTimeout, config.ReadTimeout),
		WriteTimeout: orDefault(settings.WriteTimeout, config.WriteTimeout),
		IdleTimeout:  orDefault(settings.IdleTimeout, config.IdleTimeout),
	}

	_logger.Info("Server is listening at", "address", settings.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error", err.Error(), "addr", settings.ListenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	_logger.Info("Server is shutting down", "signal", state.String())

	ctx, cancel := context.WithTimeout(context.Background(), orDefault(shutdownParams.Timeout, config.ShutdownContextTimeout))
	defer cancel()

	done := make(chan struct{})

	go func() {
		if server != nil {
			server.SetKeepAlivesEnabled(false)
			if err := server.Shutdown(ctx); err != nil {
				_logger.Error("Could not shutdown gracefully", "error", err)
			}
		}

		//stop feeding workers before closing them
		if shutdownParams.StopScheduler != nil {
			shutdownParams.StopScheduler()
		}
		if shutdownParams.Scheduler != nil {
			shutdownParams.Scheduler.Wait()
		}

		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully shut down")
		close(shutdownParams.StopExecution)
	case <-ctx.Done():
		_logger.Error("Force shut down")
		os.Exit(1)
	}
}

func orDefault(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
