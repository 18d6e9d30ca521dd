package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/requestdata"
	"github.com/bimxplan/bimxplan-backend/internal/services"
)

type ProjectHandler struct {
	collector services.CollectorService
}

func NewProjectHandler(collector services.CollectorService) *ProjectHandler {
	return &ProjectHandler{collector: collector}
}

// Create starts an empty project, or one seeded from the bundled sample when
// ?sample=true.
func (ph *ProjectHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid request body"))
		return
	}

	var plan *bep.Plan
	if c.Query("sample") == "true" {
		sample, err := bep.SamplePlan()
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "sample_unavailable", err)
			return
		}
		plan = sample
	}

	project, err := ph.collector.CreateProject(c.Request.Context(), rd.UserID, req.Name, plan)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	RespondOK(c, project)
}

func (ph *ProjectHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projects, err := ph.collector.ListProjects(c.Request.Context(), rd.UserID)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	RespondOK(c, gin.H{"projects": projects})
}

// ExportData runs the unified collector fetch and returns the denormalized
// projection with the validation report folded in.
func (ph *ProjectHandler) ExportData(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid project id"))
		return
	}
	data, err := ph.collector.Fetch(c.Request.Context(), rd.UserID, projectID)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	RespondOK(c, data)
}

// SavePlan replaces the whole plan blob.
func (ph *ProjectHandler) SavePlan(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid project id"))
		return
	}
	var plan bep.Plan
	if err := c.ShouldBindJSON(&plan); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid plan payload"))
		return
	}
	version, err := ph.collector.Save(c.Request.Context(), rd.UserID, projectID, &plan, "")
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	RespondOK(c, gin.H{"version_number": version})
}

func (ph *ProjectHandler) ListVersions(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid project id"))
		return
	}
	versions, err := ph.collector.ListVersions(c.Request.Context(), rd.UserID, projectID, 50)
	if err != nil {
		respondPipelineError(c, err)
		return
	}
	RespondOK(c, gin.H{"versions": versions})
}

// respondPipelineError maps the collector failure taxonomy onto HTTP codes.
func respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", services.ErrNotFound)
	case errors.Is(err, services.ErrAccessDenied):
		RespondError(c, http.StatusForbidden, "access_denied", services.ErrAccessDenied)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
