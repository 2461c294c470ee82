package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/DocuMind/internal/adapter/utils"
	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/handlers"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Injecting trace middleware")
	req := re.req
	if req == nil {
		//this is a bad request
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}
	trace := req.Header.Get(traceHeader)
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set(traceHeader, trace)
	re.writer.Header().Set(traceHeader, trace)
	re.req = req.WithContext(ctx)

	re.logger.Debug("trace middleware injected")
	return re
}

func authenticate(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Authenticating request")

	if !IsValidBearerToken(re.req.Header.Get("Authorization"), re.logger) {
		re.badRequest.isBadRequest = true
		re.badRequest.errorMessage = "Unauthorized"
		re.badRequest.httpCode = http.StatusUnauthorized
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

func IsValidBearerToken(authHeader string, log *logger_i.Logger) bool {
	auth := currentAuth()
	if auth.Bypass {
		log.Warn("auth bypass is on, do not run this in prod")
		return true
	}
	if auth.Token == "" {
		log.Error("No auth token configured, rejecting every request")
		return false
	}
	if authHeader == "" {
		log.Error("Empty authorization header")
		return false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Error("No Bearer header")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(auth.Token)) != 1 {
		log.Error("Invalid authorization header")
		return false
	}

	return true
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	re.logger.Debug("Rate limiter middleware")
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !currentLimiter().GetLimiter(ip).Allow() {
		re.logger.Error("Too many requests", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
		return re
	}
	re.logger.Debug("Rate limiter middleware authorized")
	return re
}

func handleBadRequest(re requestResponseStruct) {
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, "", re.badRequest.errorMessage)
}
