package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/events"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
)

// StepPreview is the terminal wizard position after the nine section steps.
// It carries no plan data and is never gated.
const StepPreview bep.StepID = "preview"

type saveState string

const (
	saveIdle    saveState = "idle"
	savePending saveState = "pending-save"
	saveSaving  saveState = "saving"
)

const (
	defaultSaveDebounce = 500 * time.Millisecond
	rehydrateAttempts   = 3
)

// WizardSession is the server-side editing session for one (user, project)
// pair. The plan is mutated in memory on every step change; persistence
// happens through the debounced autosave or an explicit manual save.
type WizardSession struct {
	mu sync.Mutex

	ID        uuid.UUID
	UserID    uuid.UUID
	ProjectID uuid.UUID

	currentStep bep.StepID
	plan        bep.Plan

	state            saveState
	saveTimer        *time.Timer
	lastSavedPayload []byte

	rehydrated    bool
	accessRevoked bool
	refreshing    bool
}

// WizardSnapshot is what the handlers return after every wizard operation:
// the session position, the live plan, and the derived validation and
// progress views.
type WizardSnapshot struct {
	SessionID     uuid.UUID            `json:"session_id"`
	ProjectID     uuid.UUID            `json:"project_id"`
	CurrentStep   bep.StepID           `json:"current_step"`
	Plan          bep.Plan             `json:"plan"`
	Validation    bep.ValidationReport `json:"validation"`
	Progress      bep.Progress         `json:"progress"`
	GateMessages  []string             `json:"gate_messages,omitempty"`
	SaveState     string               `json:"save_state"`
	AccessRevoked bool                 `json:"access_revoked"`
}

type WizardService interface {
	OpenSession(ctx context.Context, userID, projectID uuid.UUID) (*WizardSnapshot, error)
	GetSession(sessionID uuid.UUID) (*WizardSnapshot, error)
	Next(ctx context.Context, sessionID uuid.UUID) (*WizardSnapshot, error)
	Previous(ctx context.Context, sessionID uuid.UUID) (*WizardSnapshot, error)
	JumpTo(ctx context.Context, sessionID uuid.UUID, stepID bep.StepID) (*WizardSnapshot, error)
	UpdateStep(ctx context.Context, sessionID uuid.UUID, stepID bep.StepID, section json.RawMessage) (*WizardSnapshot, error)
	ManualSave(ctx context.Context, sessionID uuid.UUID) (*WizardSnapshot, error)
	FlushPendingSave(ctx context.Context, userID, projectID uuid.UUID) error
}

type wizardService struct {
	log          *logger.Logger
	bus          *events.Bus
	collector    CollectorService
	saveDebounce time.Duration

	mu        sync.Mutex
	sessions  map[uuid.UUID]*WizardSession
	byProject map[sessionKey]uuid.UUID
}

type sessionKey struct {
	userID    uuid.UUID
	projectID uuid.UUID
}

func NewWizardService(log *logger.Logger, bus *events.Bus, collector CollectorService) WizardService {
	return &wizardService{
		log:          log.With("service", "WizardService"),
		bus:          bus,
		collector:    collector,
		saveDebounce: defaultSaveDebounce,
		sessions:     make(map[uuid.UUID]*WizardSession),
		byProject:    make(map[sessionKey]uuid.UUID),
	}
}

// OpenSession returns the existing session for the (user, project) pair or
// creates one and rehydrates it from storage. Rehydration retries transient
// failures; after the attempts are exhausted the session is marked
// access-revoked and every edit operation refuses it.
func (ws *wizardService) OpenSession(ctx context.Context, userID, projectID uuid.UUID) (*WizardSnapshot, error) {
	key := sessionKey{userID: userID, projectID: projectID}

	ws.mu.Lock()
	if sid, ok := ws.byProject[key]; ok {
		session := ws.sessions[sid]
		ws.mu.Unlock()
		return ws.snapshot(session, nil), nil
	}
	session := &WizardSession{
		ID:          uuid.New(),
		UserID:      userID,
		ProjectID:   projectID,
		currentStep: bep.StepOverview,
		state:       saveIdle,
	}
	ws.sessions[session.ID] = session
	ws.byProject[key] = session.ID
	ws.mu.Unlock()

	if err := ws.rehydrate(ctx, session); err != nil {
		return ws.snapshot(session, nil), err
	}
	return ws.snapshot(session, nil), nil
}

func (ws *wizardService) rehydrate(ctx context.Context, session *WizardSession) error {
	session.mu.Lock()
	if session.refreshing {
		session.mu.Unlock()
		return nil
	}
	session.refreshing = true
	session.mu.Unlock()

	defer func() {
		session.mu.Lock()
		session.refreshing = false
		session.mu.Unlock()
	}()

	var lastErr error
	for attempt := 1; attempt <= rehydrateAttempts; attempt++ {
		data, err := ws.collector.Fetch(ctx, session.UserID, session.ProjectID)
		if err == nil {
			plan := data.Sections()
			payload, merr := json.Marshal(&plan)
			if merr != nil {
				return merr
			}
			session.mu.Lock()
			session.plan = plan
			session.lastSavedPayload = payload
			session.rehydrated = true
			session.accessRevoked = false
			session.mu.Unlock()
			return nil
		}
		lastErr = err
		ws.log.Warn("session rehydrate attempt failed",
			"session_id", session.ID.String(),
			"project_id", session.ProjectID.String(),
			"attempt", attempt,
			"error", err.Error())
	}

	session.mu.Lock()
	session.accessRevoked = true
	session.mu.Unlock()
	ws.log.Error("session rehydrate exhausted, marking access revoked",
		"session_id", session.ID.String(),
		"project_id", session.ProjectID.String())
	return lastErr
}

func (ws *wizardService) GetSession(sessionID uuid.UUID) (*WizardSnapshot, error) {
	session, err := ws.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return ws.snapshot(session, nil), nil
}

// Next advances to the following step only when the current step's required
// fields pass; otherwise the snapshot carries the failing gate messages and
// the position does not move. After the last section step the session lands
// on the preview.
func (ws *wizardService) Next(ctx context.Context, sessionID uuid.UUID) (*WizardSnapshot, error) {
	session, err := ws.editable(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.currentStep == StepPreview {
		return ws.snapshotLocked(session, nil), nil
	}
	ok, messages := bep.ValidateStep(session.currentStep, &session.plan)
	if !ok {
		return ws.snapshotLocked(session, messages), nil
	}
	idx := stepIndex(session.currentStep)
	if idx == len(bep.Steps)-1 {
		session.currentStep = StepPreview
	} else {
		session.currentStep = bep.Steps[idx+1].ID
	}
	return ws.snapshotLocked(session, nil), nil
}

func (ws *wizardService) Previous(ctx context.Context, sessionID uuid.UUID) (*WizardSnapshot, error) {
	session, err := ws.editable(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.currentStep == StepPreview {
		session.currentStep = bep.Steps[len(bep.Steps)-1].ID
	} else if idx := stepIndex(session.currentStep); idx > 0 {
		session.currentStep = bep.Steps[idx-1].ID
	}
	return ws.snapshotLocked(session, nil), nil
}

// JumpTo moves to any step without gating.
func (ws *wizardService) JumpTo(ctx context.Context, sessionID uuid.UUID, stepID bep.StepID) (*WizardSnapshot, error) {
	session, err := ws.editable(sessionID)
	if err != nil {
		return nil, err
	}
	if stepID != StepPreview && stepIndex(stepID) < 0 {
		return nil, fmt.Errorf("unknown wizard step %q", stepID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.currentStep = stepID
	return ws.snapshotLocked(session, nil), nil
}

// UpdateStep replaces one section of the in-memory plan, recomputes the
// derived views, announces them on the bus, and arms the autosave debounce.
// Repeated edits within the window keep pushing the save out.
func (ws *wizardService) UpdateStep(ctx context.Context, sessionID uuid.UUID, stepID bep.StepID, section json.RawMessage) (*WizardSnapshot, error) {
	session, err := ws.editable(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if err := applyStepData(&session.plan, stepID, section); err != nil {
		return nil, err
	}

	report := bep.Validate(&session.plan)
	progress := bep.ComputeProgress(&session.plan)
	projectID := session.ProjectID.String()
	ws.bus.Emit(events.EventDataUpdated, projectID, stepID)
	ws.bus.Emit(events.EventValidationUpdated, projectID, report)
	ws.bus.Emit(events.EventProgressUpdated, projectID, progress)

	session.state = savePending
	if session.saveTimer != nil {
		session.saveTimer.Stop()
	}
	session.saveTimer = time.AfterFunc(ws.saveDebounce, func() {
		ws.autosave(session)
	})

	return ws.snapshotLocked(session, nil), nil
}

// ManualSave persists immediately. A pending autosave timer is cancelled
// first so the debounced write cannot fire afterwards with a stale payload
// cache.
func (ws *wizardService) ManualSave(ctx context.Context, sessionID uuid.UUID) (*WizardSnapshot, error) {
	session, err := ws.editable(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.saveTimer != nil {
		session.saveTimer.Stop()
		session.saveTimer = nil
	}
	if err := ws.saveLocked(ctx, session, false); err != nil {
		return nil, err
	}
	return ws.snapshotLocked(session, nil), nil
}

// FlushPendingSave synchronously drains any pending autosave for the
// (user, project) session. The export pipeline calls this so a PDF never
// renders data the debounce window is still holding. No session or nothing
// pending is a no-op.
func (ws *wizardService) FlushPendingSave(ctx context.Context, userID, projectID uuid.UUID) error {
	ws.mu.Lock()
	sid, ok := ws.byProject[sessionKey{userID: userID, projectID: projectID}]
	if !ok {
		ws.mu.Unlock()
		return nil
	}
	session := ws.sessions[sid]
	ws.mu.Unlock()

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != savePending {
		return nil
	}
	if session.saveTimer != nil {
		session.saveTimer.Stop()
		session.saveTimer = nil
	}
	return ws.saveLocked(ctx, session, false)
}

// autosave runs on the debounce timer goroutine. Failures are logged, never
// surfaced; the next edit re-arms the timer.
func (ws *wizardService) autosave(session *WizardSession) {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.state != savePending {
		return
	}
	if err := ws.saveLocked(context.Background(), session, true); err != nil {
		ws.log.Warn("autosave failed",
			"session_id", session.ID.String(),
			"project_id", session.ProjectID.String(),
			"error", err.Error())
	}
}

// saveLocked performs the dedup check and the storage write. Caller holds
// session.mu. An autosave whose payload byte-equals the last successful save
// is skipped entirely: no version entry, no write.
func (ws *wizardService) saveLocked(ctx context.Context, session *WizardSession, auto bool) error {
	payload, err := json.Marshal(&session.plan)
	if err != nil {
		session.state = saveIdle
		return err
	}
	if auto && bytes.Equal(payload, session.lastSavedPayload) {
		session.state = saveIdle
		return nil
	}

	session.state = saveSaving
	plan := session.plan
	if _, err := ws.collector.Save(ctx, session.UserID, session.ProjectID, &plan, ""); err != nil {
		session.state = saveIdle
		return err
	}
	session.lastSavedPayload = payload
	session.state = saveIdle
	return nil
}

func (ws *wizardService) lookup(sessionID uuid.UUID) (*WizardSession, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	session, ok := ws.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("wizard session %s not found", sessionID)
	}
	return session, nil
}

func (ws *wizardService) editable(sessionID uuid.UUID) (*WizardSession, error) {
	session, err := ws.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	revoked := session.accessRevoked
	refreshing := session.refreshing
	session.mu.Unlock()
	if revoked {
		return nil, ErrAccessDenied
	}
	if refreshing {
		return nil, fmt.Errorf("session is still loading")
	}
	return session, nil
}

func (ws *wizardService) snapshot(session *WizardSession, gateMessages []string) *WizardSnapshot {
	session.mu.Lock()
	defer session.mu.Unlock()
	return ws.snapshotLocked(session, gateMessages)
}

func (ws *wizardService) snapshotLocked(session *WizardSession, gateMessages []string) *WizardSnapshot {
	return &WizardSnapshot{
		SessionID:     session.ID,
		ProjectID:     session.ProjectID,
		CurrentStep:   session.currentStep,
		Plan:          session.plan,
		Validation:    bep.Validate(&session.plan),
		Progress:      bep.ComputeProgress(&session.plan),
		GateMessages:  gateMessages,
		SaveState:     string(session.state),
		AccessRevoked: session.accessRevoked,
	}
}

func stepIndex(stepID bep.StepID) int {
	for i, step := range bep.Steps {
		if step.ID == stepID {
			return i
		}
	}
	return -1
}

func applyStepData(plan *bep.Plan, stepID bep.StepID, raw json.RawMessage) error {
	switch stepID {
	case bep.StepOverview:
		var s bep.ProjectOverview
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid overview payload: %w", err)
		}
		plan.ProjectOverview = &s
	case bep.StepTeam:
		var s bep.TeamResponsibilities
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid team payload: %w", err)
		}
		plan.TeamResponsibilities = &s
	case bep.StepSoftware:
		var s bep.SoftwareOverview
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid software payload: %w", err)
		}
		plan.SoftwareOverview = &s
	case bep.StepModeling:
		var s bep.ModelingScope
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid modeling payload: %w", err)
		}
		plan.ModelingScope = &s
	case bep.StepNaming:
		var s bep.FileNaming
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid naming payload: %w", err)
		}
		plan.FileNaming = &s
	case bep.StepCollaboration:
		var s bep.CollaborationCDE
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid collaboration payload: %w", err)
		}
		plan.CollaborationCDE = &s
	case bep.StepGeolocation:
		var s bep.Geolocation
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid geolocation payload: %w", err)
		}
		plan.Geolocation = &s
	case bep.StepChecking:
		var s bep.ModelChecking
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid checking payload: %w", err)
		}
		plan.ModelChecking = &s
	case bep.StepOutputs:
		var s bep.OutputsDeliverables
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid outputs payload: %w", err)
		}
		plan.OutputsDeliverables = &s
	default:
		return fmt.Errorf("unknown wizard step %q", stepID)
	}
	return nil
}
