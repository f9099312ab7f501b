package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roach88/qbdsl/internal/compiler"
	"github.com/roach88/qbdsl/internal/querydsl"
	"github.com/roach88/qbdsl/internal/ruletree"
)

// Handlers serves the compile API.
type Handlers struct {
	compiler *compiler.Compiler
	metrics  *Metrics
	logger   *slog.Logger
}

// NewHandlers returns handlers compiling with c.
func NewHandlers(c *compiler.Compiler, metrics *Metrics, logger *slog.Logger) *Handlers {
	return &Handlers{compiler: c, metrics: metrics, logger: logger}
}

// RegisterRoutes mounts the API on a /v1 group.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.POST("/compile", h.HandleCompile)
	rg.GET("/health", h.HandleHealth)
}

// HandleCompile handles POST /v1/compile.
func (h *Handlers) HandleCompile(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleCompile")

	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		h.metrics.invalid()
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	tree, err := ruletree.Parse(req.Tree)
	if err != nil {
		logger.Warn("Invalid rule tree", "error", err)
		h.metrics.invalid()
		resp := ErrorResponse{Error: "Invalid rule tree", Code: "INVALID_TREE", Details: err.Error()}
		var perr *ruletree.ParseError
		if errors.As(err, &perr) {
			resp.Details = perr.Path + ": " + perr.Message
		}
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	start := time.Now()
	res := h.compiler.Compile(tree)
	h.metrics.observe(res, time.Since(start).Seconds())

	warnings := res.Warnings
	if warnings == nil {
		warnings = compiler.Warnings{}
	}

	if req.Strict && len(warnings) > 0 {
		logger.Info("Strict compile rejected", "warnings", len(warnings))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:    res.Warnings.Err().Error(),
			Code:     "COMPILE_WARNINGS",
			Warnings: warnings,
		})
		return
	}

	query, err := querydsl.MarshalCanonical(res.Query)
	if err != nil {
		logger.Error("Marshal query failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "MARSHAL_FAILED"})
		return
	}
	hash, err := res.Hash()
	if err != nil {
		logger.Error("Hash query failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "MARSHAL_FAILED"})
		return
	}

	logger.Debug("Compiled", "absent", res.Absent(), "warnings", len(warnings), "hash", hash)
	c.JSON(http.StatusOK, CompileResponse{
		Query:    query,
		Warnings: warnings,
		Hash:     hash,
	})
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	cfg := h.compiler.Config()
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Operators: len(cfg.Operators),
		Widgets:   len(cfg.Widgets),
		Fields:    len(cfg.Fields),
	})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
