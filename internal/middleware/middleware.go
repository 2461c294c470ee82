package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/DocuMind/internal/adapter/utils"
	"github.com/akolanti/DocuMind/internal/handlers"
	"github.com/akolanti/DocuMind/internal/metrics"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const traceHeader = "X-Trace-Id"

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var middlewareLogger = logger_i.NewLogger("middleware")

var HealthHandler = Public(handlers.HealthHandler)

var CreateSessionHandler = Wrap(handlers.CreateSessionHandler)
var GetSessionHandler = Wrap(handlers.GetSessionHandler)
var GetMessagesHandler = Wrap(handlers.GetMessagesHandler)
var UploadDocumentHandler = Wrap(handlers.UploadDocumentHandler)
var GetDocumentHandler = Wrap(handlers.GetDocumentHandler)
var ChatHandler = Wrap(handlers.ChatHandler)
var AskHandler = Wrap(handlers.AskHandler)
var GetStatusHandler = Wrap(handlers.GetStatusHandler)

// Wrap runs trace injection, auth and the rate limiter before next.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return chain(next, true)
}

// Public skips auth and the rate limiter; used for probes.
func Public(next http.HandlerFunc) http.HandlerFunc {
	return chain(next, false)
}

func chain(next http.HandlerFunc, protected bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(utils.GetRoutePattern(r), strconv.Itoa(rec.Status)).Inc()
		}()

		re := processRequest(requestResponseStruct{req: r, writer: rec}, protected)
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)
	}
}

func processRequest(re requestResponseStruct, protected bool) requestResponseStruct {
	re.logger = middlewareLogger
	re.logger.Debug("New request received")
	re = injectTrace(re)
	if re.badRequest.isBadRequest || !protected {
		return re
	}
	re = authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	return rateLimiter(re)
}
