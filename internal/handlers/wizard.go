package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/requestdata"
	"github.com/bimxplan/bimxplan-backend/internal/services"
)

type WizardHandler struct {
	wizard services.WizardService
}

func NewWizardHandler(wizard services.WizardService) *WizardHandler {
	return &WizardHandler{wizard: wizard}
}

// Open creates or resumes the editing session for a project.
func (wh *WizardHandler) Open(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid project id"))
		return
	}
	snapshot, err := wh.wizard.OpenSession(c.Request.Context(), rd.UserID, projectID)
	if err != nil && snapshot == nil {
		respondPipelineError(c, err)
		return
	}
	// A rehydrate failure still returns the snapshot; access_revoked tells
	// the client the session is read-dead.
	RespondOK(c, snapshot)
}

func (wh *WizardHandler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid session id"))
		return
	}
	snapshot, err := wh.wizard.GetSession(sessionID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	RespondOK(c, snapshot)
}

func (wh *WizardHandler) Next(c *gin.Context) {
	wh.navigate(c, wh.wizard.Next)
}

func (wh *WizardHandler) Previous(c *gin.Context) {
	wh.navigate(c, wh.wizard.Previous)
}

func (wh *WizardHandler) Jump(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid session id"))
		return
	}
	var req struct {
		Step string `json:"step"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid request body"))
		return
	}
	snapshot, err := wh.wizard.JumpTo(c.Request.Context(), sessionID, bep.StepID(req.Step))
	if err != nil {
		respondWizardError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

// UpdateStep replaces one section of the session plan and arms the autosave.
func (wh *WizardHandler) UpdateStep(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid session id"))
		return
	}
	stepID := bep.StepID(c.Param("stepId"))
	var section json.RawMessage
	if err := c.ShouldBindJSON(&section); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid section payload"))
		return
	}
	snapshot, err := wh.wizard.UpdateStep(c.Request.Context(), sessionID, stepID, section)
	if err != nil {
		respondWizardError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

func (wh *WizardHandler) ManualSave(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid session id"))
		return
	}
	snapshot, err := wh.wizard.ManualSave(c.Request.Context(), sessionID)
	if err != nil {
		respondWizardError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

func (wh *WizardHandler) navigate(c *gin.Context, op func(ctx context.Context, sessionID uuid.UUID) (*services.WizardSnapshot, error)) {
	sessionID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", errors.New("invalid session id"))
		return
	}
	snapshot, err := op(c.Request.Context(), sessionID)
	if err != nil {
		respondWizardError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

func respondWizardError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrAccessDenied) {
		RespondError(c, http.StatusForbidden, "access_denied", err)
		return
	}
	RespondError(c, http.StatusBadRequest, "bad_request", err)
}
