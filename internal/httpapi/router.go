package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saadjs/macroplan/internal/config"
	"github.com/saadjs/macroplan/internal/mealplan"
	"github.com/saadjs/macroplan/internal/service"
)

type Server struct {
	db     *sql.DB
	cfg    config.Config
	logger *zap.Logger
}

type AliveResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Info    CheckInfo `json:"info"`
}

type CheckInfo struct {
	RoutineNum int `json:"routine_num"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter wires the JSON API over the service layer. The caller owns db.
func NewRouter(db *sql.DB, cfg config.Config, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{db: db, cfg: cfg, logger: logger}

	route := gin.New()
	route.Use(gin.Recovery(), requestLogger(logger))

	route.GET("/read-probe", s.probe)
	route.GET("/check-live", s.checkAlive)

	api := route.Group("/api")
	api.GET("/profile", s.getProfile)
	api.GET("/weight-log", s.listWeightLog)
	api.GET("/diet-phases", s.listDietPhases)
	api.PUT("/diet-phases", s.updateDietPhase)
	api.GET("/analytics", s.listAnalytics)
	api.PUT("/analytics", s.upsertAnalyticsWeek)
	api.POST("/analytics/rebuild", s.rebuildAnalytics)
	api.GET("/foods", s.listFoods)
	api.POST("/meal-plan/generate", s.generateMealPlan)
	api.POST("/meal-plan", s.saveMealPlan)
	api.GET("/meal-plan", s.getMealPlan)

	return route
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) probe(c *gin.Context) {
	c.JSON(http.StatusOK, AliveResponse{Success: true, Message: "probe success"})
}

func (s *Server) checkAlive(c *gin.Context) {
	info := CheckInfo{RoutineNum: runtime.NumGoroutine()}
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		s.logger.Error("database ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, AliveResponse{Success: false, Message: "database unavailable", Info: info})
		return
	}
	c.JSON(http.StatusOK, AliveResponse{Success: true, Message: "main thread alive", Info: info})
}

// fail maps service errors onto HTTP status codes. Errors without a known
// sentinel get fallback.
func (s *Server) fail(c *gin.Context, err error, fallback int) {
	status := fallback
	switch {
	case errors.Is(err, mealplan.ErrTargetsRequired), errors.Is(err, mealplan.ErrNoFoods):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrProfileNotFound), errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}
