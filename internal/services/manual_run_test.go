package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devboardhq/devboard/internal/models"
	"gorm.io/gorm"
)

// pipelineStub fakes the provider: GET pipeline lookups answer with
// statusCode/status, POST triggers create pipeline 501.
type pipelineStub struct {
	statusCode int
	status     string
	getCalls   atomic.Int32
}

func (s *pipelineStub) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" {
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"id": 501, "status": "pending", "web_url": "https://ci.example.com/pipelines/501"}`)
			return
		}
		s.getCalls.Add(1)
		if s.statusCode != http.StatusOK {
			w.WriteHeader(s.statusCode)
			return
		}
		fmt.Fprintf(w, `{"id": 91, "status": %q}`, s.status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func seedTriggerApp(t *testing.T, db *gorm.DB, baseURL string) *models.Application {
	t.Helper()
	app := &models.Application{
		Name:     "Checkout",
		Code:     "checkout",
		Watching: true,
		E2ETriggerConfiguration: fmt.Sprintf(
			`{"base_url":%q,"project_id":"7","token":"tok-1"}`, baseURL),
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("failed to seed application: %v", err)
	}
	return app
}

func TestTriggerConflictsWhileRunInFlight(t *testing.T) {
	db := newTestDB(t)
	stub := &pipelineStub{statusCode: http.StatusOK, status: "running"}
	app := seedTriggerApp(t, db, stub.server(t).URL)
	db.Create(&models.E2EManualRun{AppID: app.ID, PipelineID: "91"})

	svc := NewManualRunService(db, NewPipelineClient(), nil)

	_, err := svc.Trigger(context.Background(), app.ID)
	assertConflict(t, err)
}

func TestTriggerBlocksWhenStatusUnknown(t *testing.T) {
	db := newTestDB(t)
	stub := &pipelineStub{statusCode: http.StatusInternalServerError}
	app := seedTriggerApp(t, db, stub.server(t).URL)
	db.Create(&models.E2EManualRun{AppID: app.ID, PipelineID: "91"})

	svc := NewManualRunService(db, NewPipelineClient(), nil)

	// A recent run whose state cannot be checked counts as in flight.
	_, err := svc.Trigger(context.Background(), app.ID)
	assertConflict(t, err)
}

func TestTriggerAllowsAfterTerminalRun(t *testing.T) {
	db := newTestDB(t)
	stub := &pipelineStub{statusCode: http.StatusOK, status: "success"}
	app := seedTriggerApp(t, db, stub.server(t).URL)
	db.Create(&models.E2EManualRun{AppID: app.ID, PipelineID: "91"})

	svc := NewManualRunService(db, NewPipelineClient(), nil)

	record, err := svc.Trigger(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if record.PipelineID != "501" {
		t.Errorf("PipelineID = %q, expected %q", record.PipelineID, "501")
	}
	if record.AppID != app.ID {
		t.Errorf("AppID = %d, expected %d", record.AppID, app.ID)
	}
}

func TestTriggerIgnoresRunsOlderThanADay(t *testing.T) {
	db := newTestDB(t)
	stub := &pipelineStub{statusCode: http.StatusInternalServerError}
	app := seedTriggerApp(t, db, stub.server(t).URL)
	db.Create(&models.E2EManualRun{
		AppID:      app.ID,
		PipelineID: "91",
		CreatedAt:  time.Now().Add(-48 * time.Hour),
	})

	svc := NewManualRunService(db, NewPipelineClient(), nil)

	// The stale run is assumed finished without asking the provider.
	if _, err := svc.Trigger(context.Background(), app.ID); err != nil {
		t.Fatalf("Trigger() error = %v", err)
	}
	if n := stub.getCalls.Load(); n != 0 {
		t.Errorf("status endpoint called %d times, expected 0", n)
	}
}

func TestTriggerRejectsUnknownApp(t *testing.T) {
	db := newTestDB(t)

	svc := NewManualRunService(db, NewPipelineClient(), nil)

	_, err := svc.Trigger(context.Background(), 999)
	if err == nil {
		t.Fatal("expected an error for an unknown application")
	}
}
