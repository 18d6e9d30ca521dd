package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bimxplan/bimxplan-backend/internal/bep"
	"github.com/bimxplan/bimxplan-backend/internal/events"
	"github.com/bimxplan/bimxplan-backend/internal/logger"
	"github.com/bimxplan/bimxplan-backend/internal/types"
)

// fakeCollector implements CollectorService in memory and counts writes.
type fakeCollector struct {
	mu         sync.Mutex
	data       *bep.ExportData
	fetches    int
	fetchFails int
	saves      []string
	saveErr    error
}

func newFakeCollector() *fakeCollector {
	data := &bep.ExportData{
		ProjectID:   uuid.NewString(),
		ProjectName: "Tower A",
		Status:      "draft",
	}
	data.ProjectOverview = bep.ProjectOverview{
		ProjectName: "Tower A",
		ClientName:  "Acme Development",
		Location:    "Rotterdam",
		ProjectType: "Commercial",
	}
	return &fakeCollector{data: data}
}

func (f *fakeCollector) CreateProject(ctx context.Context, userID uuid.UUID, name string, plan *bep.Plan) (*types.Project, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeCollector) ListProjects(ctx context.Context, userID uuid.UUID) ([]*types.Project, error) {
	return nil, nil
}

func (f *fakeCollector) ListVersions(ctx context.Context, userID, projectID uuid.UUID, limit int) ([]*types.ProjectVersion, error) {
	return nil, nil
}

func (f *fakeCollector) Fetch(ctx context.Context, userID, projectID uuid.UUID) (*bep.ExportData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.fetchFails >= f.fetches {
		return nil, &CollectorError{Op: "fetch", ProjectID: projectID.String(), Err: errors.New("transient storage failure")}
	}
	return f.data, nil
}

func (f *fakeCollector) Save(ctx context.Context, userID, projectID uuid.UUID, plan *bep.Plan, changelog string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	blob, err := json.Marshal(plan)
	if err != nil {
		return 0, err
	}
	f.saves = append(f.saves, string(blob))
	return int64(len(f.saves)), nil
}

func (f *fakeCollector) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func newTestWizard(t *testing.T, collector CollectorService) *wizardService {
	t.Helper()
	ws := NewWizardService(logger.NewNop(), events.NewBus(logger.NewNop()), collector).(*wizardService)
	ws.saveDebounce = 20 * time.Millisecond
	return ws
}

func mustOpen(t *testing.T, ws *wizardService) *WizardSnapshot {
	t.Helper()
	snapshot, err := ws.OpenSession(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	return snapshot
}

func overviewJSON(projectName string) json.RawMessage {
	raw, _ := json.Marshal(bep.ProjectOverview{
		ProjectName: projectName,
		ClientName:  "Acme Development",
		Location:    "Rotterdam",
		ProjectType: "Commercial",
	})
	return raw
}

func TestWizard_OpenRehydratesFromCollector(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)

	snapshot := mustOpen(t, ws)
	if snapshot.CurrentStep != bep.StepOverview {
		t.Fatalf("new session should start on the overview step, got %s", snapshot.CurrentStep)
	}
	if snapshot.Plan.ProjectOverview == nil || snapshot.Plan.ProjectOverview.ProjectName != "Tower A" {
		t.Fatalf("session plan was not rehydrated: %+v", snapshot.Plan.ProjectOverview)
	}
	if snapshot.AccessRevoked {
		t.Fatalf("healthy rehydrate must not revoke access")
	}
}

func TestWizard_OpenIsIdempotentPerProject(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	userID, projectID := uuid.New(), uuid.New()

	first, err := ws.OpenSession(context.Background(), userID, projectID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	second, err := ws.OpenSession(context.Background(), userID, projectID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if first.SessionID != second.SessionID {
		t.Fatalf("same user and project must resume the same session")
	}
}

// Autosave skips the write when the serialized plan is byte-identical to the
// last successful save.
func TestWizard_AutosaveDedup(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	snapshot := mustOpen(t, ws)

	// Same overview content the session was rehydrated with.
	if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON("Tower A")); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := collector.saveCount(); got != 0 {
		t.Fatalf("identical payload must not be persisted, got %d saves", got)
	}
}

// Rapid edits within the debounce window coalesce into one storage write.
func TestWizard_AutosaveCoalesces(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	snapshot := mustOpen(t, ws)

	for _, name := range []string{"Tower B", "Tower C", "Tower D"} {
		if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON(name)); err != nil {
			t.Fatalf("UpdateStep: %v", err)
		}
	}
	time.Sleep(100 * time.Millisecond)

	if got := collector.saveCount(); got != 1 {
		t.Fatalf("expected exactly one coalesced save, got %d", got)
	}
}

// A manual save during the debounce window cancels the pending autosave and
// refreshes the dedup cache, so the timer firing later writes nothing.
func TestWizard_ManualSaveCancelsPendingAutosave(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	snapshot := mustOpen(t, ws)

	if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON("Tower B")); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	if _, err := ws.ManualSave(context.Background(), snapshot.SessionID); err != nil {
		t.Fatalf("ManualSave: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := collector.saveCount(); got != 1 {
		t.Fatalf("expected exactly one save after manual save, got %d", got)
	}
}

func TestWizard_FlushDrainsPendingSave(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	userID, projectID := uuid.New(), uuid.New()
	snapshot, err := ws.OpenSession(context.Background(), userID, projectID)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}

	if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON("Tower B")); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	if err := ws.FlushPendingSave(context.Background(), userID, projectID); err != nil {
		t.Fatalf("FlushPendingSave: %v", err)
	}
	if got := collector.saveCount(); got != 1 {
		t.Fatalf("flush must persist the pending edit synchronously, got %d saves", got)
	}

	time.Sleep(100 * time.Millisecond)
	if got := collector.saveCount(); got != 1 {
		t.Fatalf("the stale timer must not write again after flush, got %d saves", got)
	}
}

func TestWizard_FlushWithoutSessionIsNoop(t *testing.T) {
	ws := newTestWizard(t, newFakeCollector())
	if err := ws.FlushPendingSave(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("flush on an unknown project must be a no-op, got %v", err)
	}
}

func TestWizard_RehydrateRetriesThenRevokes(t *testing.T) {
	collector := newFakeCollector()
	collector.fetchFails = 10
	ws := newTestWizard(t, collector)

	snapshot, err := ws.OpenSession(context.Background(), uuid.New(), uuid.New())
	if err == nil {
		t.Fatalf("exhausted rehydrate must surface the error")
	}
	if collector.fetches != rehydrateAttempts {
		t.Fatalf("expected %d fetch attempts, got %d", rehydrateAttempts, collector.fetches)
	}
	if !snapshot.AccessRevoked {
		t.Fatalf("session must be marked access revoked after exhaustion")
	}

	if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON("Tower B")); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("revoked session must refuse edits, got %v", err)
	}
}

func TestWizard_RehydrateRecoversWithinAttempts(t *testing.T) {
	collector := newFakeCollector()
	collector.fetchFails = 2
	ws := newTestWizard(t, collector)

	snapshot := mustOpen(t, ws)
	if snapshot.AccessRevoked {
		t.Fatalf("a fetch that succeeds on the final attempt must not revoke access")
	}
	if collector.fetches != 3 {
		t.Fatalf("expected 3 fetch attempts, got %d", collector.fetches)
	}
}

func TestWizard_NextGatedByStepValidation(t *testing.T) {
	collector := newFakeCollector()
	collector.data.ProjectOverview = bep.ProjectOverview{ProjectName: "Tower A"}
	ws := newTestWizard(t, collector)
	snapshot := mustOpen(t, ws)

	blocked, err := ws.Next(context.Background(), snapshot.SessionID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if blocked.CurrentStep != bep.StepOverview {
		t.Fatalf("incomplete step must not advance, moved to %s", blocked.CurrentStep)
	}
	if len(blocked.GateMessages) == 0 {
		t.Fatalf("blocked navigation must carry the failing messages")
	}

	if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON("Tower A")); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	advanced, err := ws.Next(context.Background(), snapshot.SessionID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if advanced.CurrentStep != bep.StepTeam {
		t.Fatalf("complete step should advance to team, got %s", advanced.CurrentStep)
	}
}

func TestWizard_NavigationBounds(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	snapshot := mustOpen(t, ws)

	// Previous on the first step stays put.
	back, err := ws.Previous(context.Background(), snapshot.SessionID)
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if back.CurrentStep != bep.StepOverview {
		t.Fatalf("previous on the first step must stay, got %s", back.CurrentStep)
	}

	// Jump to the last step, Next lands on preview, Previous returns.
	if _, err := ws.JumpTo(context.Background(), snapshot.SessionID, bep.StepOutputs); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	onPreview, err := ws.Next(context.Background(), snapshot.SessionID)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if onPreview.CurrentStep != StepPreview {
		t.Fatalf("next after the last step should land on preview, got %s", onPreview.CurrentStep)
	}
	backFromPreview, err := ws.Previous(context.Background(), snapshot.SessionID)
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if backFromPreview.CurrentStep != bep.StepOutputs {
		t.Fatalf("previous from preview should return to outputs, got %s", backFromPreview.CurrentStep)
	}

	if _, err := ws.JumpTo(context.Background(), snapshot.SessionID, bep.StepID("bogus")); err == nil {
		t.Fatalf("jump to an unknown step must fail")
	}
}

// Autosave failures are logged and swallowed; the session keeps editing and
// the next successful save catches up.
func TestWizard_AutosaveFailureNotSurfaced(t *testing.T) {
	collector := newFakeCollector()
	ws := newTestWizard(t, collector)
	snapshot := mustOpen(t, ws)

	collector.mu.Lock()
	collector.saveErr = errors.New("storage down")
	collector.mu.Unlock()

	if _, err := ws.UpdateStep(context.Background(), snapshot.SessionID, bep.StepOverview, overviewJSON("Tower B")); err != nil {
		t.Fatalf("UpdateStep must not surface autosave errors, got %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	collector.mu.Lock()
	collector.saveErr = nil
	collector.mu.Unlock()

	if _, err := ws.ManualSave(context.Background(), snapshot.SessionID); err != nil {
		t.Fatalf("ManualSave after recovery: %v", err)
	}
	if got := collector.saveCount(); got != 1 {
		t.Fatalf("expected the recovery save to land, got %d", got)
	}
}
