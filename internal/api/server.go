package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veridex/veridex/internal/job"
	"github.com/veridex/veridex/internal/model"
)

// Engine is the job surface the server exposes. The production
// implementation is *job.Orchestrator.
type Engine interface {
	Submit(req job.SubmitRequest) (*model.FactCheckJob, error)
	Get(id string) (*model.FactCheckJob, error)
	List() []*model.FactCheckJob
	Health(ctx context.Context) error
	Mode() model.EngineMode
}

// Server exposes the fact-check engine over HTTP
type Server struct {
	orchestrator Engine
	router       *gin.Engine
}

// NewServer creates the HTTP server around an orchestrator
func NewServer(orchestrator Engine) *Server {
	s := &Server{
		orchestrator: orchestrator,
		router:       gin.New(),
	}
	s.router.Use(gin.Logger(), gin.Recovery())

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/factcheck", s.submit)
		v1.GET("/factcheck", s.list)
		v1.GET("/factcheck/:id/status", s.status)
		v1.GET("/factcheck/:id/result", s.result)
	}
	s.router.GET("/healthz", s.healthz)

	return s
}

// Run starts the server on addr, blocking until it exits
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// submitRequest is the POST /api/v1/factcheck body
type submitRequest struct {
	URL             string `json:"url"`
	ArticleText     string `json:"article_text"`
	Title           string `json:"title"`
	Mode            string `json:"mode"`
	GenerateArticle bool   `json:"generate_article"`
}

func (s *Server) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := model.JobMode(req.Mode)
	if req.Mode == "" {
		mode = model.ModeStandard
	}

	submitted, err := s.orchestrator.Submit(job.SubmitRequest{
		SourceURL:       req.URL,
		ArticleText:     req.ArticleText,
		ArticleTitle:    req.Title,
		Mode:            mode,
		GenerateArticle: req.GenerateArticle,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":                 submitted.JobID,
		"status":                 submitted.Status,
		"mode":                   submitted.Mode,
		"engine_mode":            submitted.EngineMode,
		"estimated_time_seconds": model.EstimatedSeconds(submitted.Mode),
		"status_url":             fmt.Sprintf("/api/v1/factcheck/%s/status", submitted.JobID),
		"result_url":             fmt.Sprintf("/api/v1/factcheck/%s/result", submitted.JobID),
	})
}

func (s *Server) list(c *gin.Context) {
	jobs := s.orchestrator.List()

	summaries := make([]gin.H, 0, len(jobs))
	for _, j := range jobs {
		summary := gin.H{
			"job_id":     j.JobID,
			"source_url": j.SourceURL,
			"mode":       j.Mode,
			"status":     j.Status,
			"progress":   j.Progress,
			"created_at": j.CreatedAt,
		}
		if j.Status == model.StatusFinished {
			summary["credibility_score"] = j.CredibilityScore
		}
		summaries = append(summaries, summary)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": summaries, "count": len(summaries)})
}

func (s *Server) status(c *gin.Context) {
	j, err := s.orchestrator.Get(c.Param("id"))
	if err != nil {
		s.jobError(c, err)
		return
	}

	resp := gin.H{
		"job_id":               j.JobID,
		"status":               j.Status,
		"phase":                j.Phase,
		"progress":             j.Progress,
		"elapsed_time_seconds": j.ElapsedSeconds(time.Now().UTC()),
	}
	if j.ErrorMessage != "" {
		resp["error_message"] = j.ErrorMessage
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) result(c *gin.Context) {
	j, err := s.orchestrator.Get(c.Param("id"))
	if err != nil {
		s.jobError(c, err)
		return
	}

	if !j.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{
			"error":      "job is still running",
			"status":     j.Status,
			"status_url": fmt.Sprintf("/api/v1/factcheck/%s/status", j.JobID),
		})
		return
	}

	c.JSON(http.StatusOK, j)
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	mode := s.orchestrator.Mode()
	if err := s.orchestrator.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "engine_mode": mode, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine_mode": mode})
}

func (s *Server) jobError(c *gin.Context, err error) {
	if errors.Is(err, model.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
