// @title           DocuMind API
// @version         1.0
// @description     Document ingestion and intent aware RAG answering over chat sessions
// @termsOfService  http://swagger.io/terms/

// @contact.name    akolanti
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/DocuMind/internal/config"
	jobmodel "github.com/akolanti/DocuMind/internal/domain/jobModel"
	"github.com/akolanti/DocuMind/internal/handlers"
	"github.com/akolanti/DocuMind/internal/job"
	"github.com/akolanti/DocuMind/internal/mcpServer"
	"github.com/akolanti/DocuMind/internal/middleware"
	"github.com/akolanti/DocuMind/internal/server"
	"github.com/akolanti/DocuMind/internal/worker"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

var (
	configPath        string
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	flag.StringVar(&configPath, "config", "", "path to config.yaml")
	flag.StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides the config file")
	flag.Parse()

	settings, err := config.Load(configPath)
	if err != nil {
		logger_i.Init(logger_i.Options{})
		logger_i.NewLogger("main").Error("Could not load config", "error", err)
		os.Exit(1)
	}
	if listenAddr != "" {
		settings.Server.ListenAddr = listenAddr
	}

	logger_i.Init(logger_i.Options{IsProd: settings.Log.Prod, Level: settings.Log.Level})
	var logger = logger_i.NewLogger("main")

	middleware.Configure(settings.Auth)
	worker.Configure(settings.Workers)

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, settings.Workers.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	stores := initStores(serviceContext, settings)
	if missing := stores.missing(); len(missing) > 0 {
		logger.Error("Stores are unavailable and the in-memory fallback is off. Shutting down.", "stores", missing)
		closeExternalServices()
		os.Exit(1)
	}
	files, err := initFileStorage(serviceContext, settings.Storage)
	if err != nil {
		logger.Error("File storage failed to initialize. Shutting down.", "error", err)
		return
	}

	//init job service and job queue
	logger.Info("Starting job service")
	service := job.InitJobService(job.ServiceConfig{
		JobChannel:           jobChannel,
		RequestCount:         requestCount,
		DispatcherChannel:    dispatcherChannel,
		JobStore:             stores.jobs,
		Queue:                stores.queue,
		RequestsPerNewWorker: settings.Workers.RequestsPerNewWorker,
	})

	ragService, err := initRag(serviceContext, settings, stores, files)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		return
	}

	cleaner := job.NewCleaner(service, job.CleanupOptions{
		Documents:  stores.documents,
		Janitor:    janitorOf(files),
		StaleAfter: settings.Jobs.StaleProcessingTimeout,
	})

	handlers.InitJobHandler(handlers.Dependencies{
		Jobs:      service,
		Documents: stores.documents,
		Sessions:  stores.sessions,
		Files:     files,
		Rag:       ragService,
		Ingestion: settings.Ingestion,
	})

	//init worker pool
	worker.InitServices(service, ragService, cleaner)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//feed the pool from the durable queue
	schedulerContext, stopScheduler := context.WithCancel(serviceContext)
	scheduler := job.NewScheduler(service, job.SchedulerOptions{
		PollInterval:    settings.Jobs.PollInterval,
		PromoteInterval: settings.Jobs.PromoteInterval,
	})
	scheduler.Recurring("cleanup", settings.Jobs.CleanupInterval, job.NewCleanupJob)
	scheduler.Start(schedulerContext)

	mcp := mcpServer.NewServer(ragService, stores.documents)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		StopScheduler:    stopScheduler,
		Scheduler:        scheduler,
		CloseServices:    closeExternalServices,
		Timeout:          settings.Server.ShutdownTimeout,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(settings.Server, mcp.Handler())

	<-stopExecution
	logger.Info("Server stopped")
}
