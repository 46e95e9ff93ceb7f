package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/deskdriver/internal/domain/automation"
)

// WebDriver error codes.
const (
	codeInvalidSession   = "invalid session id"
	codeNoSuchElement    = "no such element"
	codeNoSuchWindow     = "no such window"
	codeInvalidArgument  = "invalid argument"
	codeUnsupported      = "unsupported operation"
	codeSessionNotCreate = "session not created"
	codeScriptError      = "javascript error"
	codeUnknown          = "unknown error"
	codeUnknownCommand   = "unknown command"
	codeUnknownMethod    = "unknown method"
)

// ErrorBody is the value of an error response.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Stacktrace string `json:"stacktrace"`
}

// errorStatus maps an error kind to its status and WebDriver code.
// notFoundCode names what was missing for NotFound errors.
func errorStatus(kind automation.Kind, notFoundCode string) (int, string) {
	switch kind {
	case automation.KindNotFound:
		return http.StatusNotFound, notFoundCode
	case automation.KindValidation:
		return http.StatusBadRequest, codeInvalidArgument
	case automation.KindNotSupported:
		return http.StatusBadRequest, codeUnsupported
	case automation.KindInitialization:
		return http.StatusInternalServerError, codeSessionNotCreate
	case automation.KindExecutionFailed:
		return http.StatusInternalServerError, codeScriptError
	default:
		return http.StatusInternalServerError, codeUnknown
	}
}

// writeError answers with the WebDriver error envelope. Unclassified errors
// are logged in full and answered with a generic message.
func (h *Handlers) writeError(c *gin.Context, err error, notFoundCode string) {
	kind := automation.KindOf(err)
	if errors.Is(err, automation.ErrNoSuchSession) {
		notFoundCode = codeInvalidSession
	}
	status, code := errorStatus(kind, notFoundCode)

	msg := err.Error()
	switch kind {
	case automation.KindUnknown:
		h.logger.Error("Command failed",
			zap.String("path", c.FullPath()),
			zap.String("session_id", c.Param("sessionId")),
			zap.Error(err))
		msg = "An unknown server-side error occurred while processing the command"
	case automation.KindInitialization, automation.KindExecutionFailed:
		h.logger.Warn("Command failed",
			zap.String("path", c.FullPath()),
			zap.String("session_id", c.Param("sessionId")),
			zap.Stringer("kind", kind),
			zap.Error(err))
	}

	_ = c.Error(err)
	respond(c, status, ErrorBody{Error: code, Message: msg})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	respond(c, http.StatusBadRequest, ErrorBody{Error: codeInvalidArgument, Message: msg})
}

// NoRoute answers unknown paths.
func (h *Handlers) NoRoute(c *gin.Context) {
	respond(c, http.StatusNotFound, ErrorBody{
		Error:   codeUnknownCommand,
		Message: "The requested resource could not be found: " + c.Request.Method + " " + c.Request.URL.Path,
	})
}

// NoMethod answers known paths with the wrong method.
func (h *Handlers) NoMethod(c *gin.Context) {
	respond(c, http.StatusMethodNotAllowed, ErrorBody{
		Error:   codeUnknownMethod,
		Message: "The requested command is not available for method " + c.Request.Method,
	})
}
