package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/cropseason/internal/adapter/api"
	"github.com/neomorfeo/cropseason/internal/adapter/fsm"
	httpadapter "github.com/neomorfeo/cropseason/internal/adapter/http"
	"github.com/neomorfeo/cropseason/internal/adapter/sqlite"
	"github.com/neomorfeo/cropseason/internal/app"
	"github.com/neomorfeo/cropseason/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newBackend starts the full API over in-memory SQLite and returns a client for it.
func newBackend(t *testing.T) (*api.Client, *httptest.Server) {
	t.Helper()

	repo, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	svc := app.NewSeasonService(repo, fsm.New(), app.WithLogger(discardLogger()))

	router := chi.NewMux()
	humaAPI := humachi.New(router, huma.DefaultConfig("cropseason", "0.1.0"))
	httpadapter.Register(humaAPI, svc, repo, repo)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL, api.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return client, srv
}

func validForm() domain.SeasonForm {
	count := 1200
	return domain.SeasonForm{
		SeasonName:        "Spring Maize",
		PlotID:            3,
		CropID:            7,
		StartDate:         "2025-03-01",
		EndDate:           "2025-08-30",
		InitialPlantCount: &count,
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"localhost:8080", "ftp://seasons", "://"} {
		if _, err := api.New(raw); err == nil {
			t.Errorf("New(%q) succeeded, want error", raw)
		}
	}
}

func TestClient_CreateFetchList(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	created, err := client.CreateSeason(ctx, validForm())
	if err != nil {
		t.Fatalf("CreateSeason failed: %v", err)
	}
	if created.Status != domain.StatusPlanned {
		t.Errorf("Status = %q, want PLANNED", created.Status)
	}

	got, err := client.FetchSeason(ctx, created.ID)
	if err != nil {
		t.Fatalf("FetchSeason failed: %v", err)
	}
	if got.SeasonName != "Spring Maize" {
		t.Errorf("SeasonName = %q, want %q", got.SeasonName, "Spring Maize")
	}
	if !got.StartDate.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v, want 2025-03-01", got.StartDate)
	}
	if got.EndDate == nil || got.EndDate.Format(domain.DateLayout) != "2025-08-30" {
		t.Errorf("EndDate = %v, want 2025-08-30", got.EndDate)
	}

	plot := int64(3)
	seasons, err := client.ListSeasons(ctx, domain.ListFilter{PlotID: &plot, Limit: 10})
	if err != nil {
		t.Fatalf("ListSeasons failed: %v", err)
	}
	if len(seasons) != 1 {
		t.Errorf("got %d seasons, want 1", len(seasons))
	}
}

func TestClient_UpdateSeason(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	created, err := client.CreateSeason(ctx, validForm())
	if err != nil {
		t.Fatalf("CreateSeason failed: %v", err)
	}

	count := 1100
	updated, err := client.UpdateSeason(ctx, created.ID, domain.SeasonPatch{CurrentPlantCount: &count})
	if err != nil {
		t.Fatalf("UpdateSeason failed: %v", err)
	}
	if updated.CurrentPlantCount == nil || *updated.CurrentPlantCount != 1100 {
		t.Errorf("CurrentPlantCount = %v, want 1100", updated.CurrentPlantCount)
	}
}

func TestClient_NotFoundMatchesSentinel(t *testing.T) {
	client, _ := newBackend(t)

	_, err := client.FetchSeason(context.Background(), 999)
	if !errors.Is(err, domain.ErrSeasonNotFound) {
		t.Fatalf("expected ErrSeasonNotFound, got %v", err)
	}

	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *domain.RemoteError, got %T", err)
	}
	if remoteErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", remoteErr.StatusCode)
	}

	if err := client.DeleteSeason(context.Background(), 999); !errors.Is(err, domain.ErrSeasonNotFound) {
		t.Errorf("DeleteSeason: expected ErrSeasonNotFound, got %v", err)
	}
}

func TestClient_SetStatusConflict(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	created, err := client.CreateSeason(ctx, validForm())
	if err != nil {
		t.Fatalf("CreateSeason failed: %v", err)
	}

	_, err = client.SetStatus(ctx, created.ID, domain.StatusArchived, domain.ActionData{})
	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *domain.RemoteError, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusConflict {
		t.Errorf("StatusCode = %d, want 409", remoteErr.StatusCode)
	}
	if remoteErr.Detail == "" {
		t.Error("Detail should carry the server message")
	}
}

func TestClient_RejectedFormReportsViolations(t *testing.T) {
	client, _ := newBackend(t)

	form := validForm()
	form.SeasonName = "Corn Plot#1"
	_, err := client.CreateSeason(context.Background(), form)

	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *domain.RemoteError, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d, want 422", remoteErr.StatusCode)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	client, srv := newBackend(t)
	srv.Close()

	_, err := client.FetchSeason(context.Background(), 1)
	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *domain.RemoteError, got %v", err)
	}
	if remoteErr.Err == nil {
		t.Error("transport failure should carry the underlying error")
	}
	if errors.Is(err, domain.ErrSeasonNotFound) {
		t.Error("transport failure must not look like not found")
	}
}

// A status the lifecycle does not know is a rejected transition, not a
// remote failure.
func TestController_UnknownRemoteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":1,"plotId":3,"cropId":7,"seasonName":"Spring Maize",`+
			`"status":"HARVESTING","startDate":"2025-03-01","initialPlantCount":0,`+
			`"createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	got, err := client.FetchSeason(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchSeason failed: %v", err)
	}
	if got.Status != "HARVESTING" {
		t.Errorf("Status = %q, want HARVESTING as sent", got.Status)
	}

	svc := app.NewSeasonService(client, fsm.New(), app.WithLogger(discardLogger()))
	_, err = svc.Start(context.Background(), 1, app.StartInput{})
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected *domain.TransitionError, got %v", err)
	}
	if len(trErr.Allowed) != 0 {
		t.Errorf("allowed = %v, want none", trErr.Allowed)
	}
	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		t.Errorf("unknown status surfaced as RemoteError: %v", remoteErr)
	}
}

func TestClient_ServerErrorWithoutProblemBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	_, err = client.FetchSeason(context.Background(), 1)
	var remoteErr *domain.RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *domain.RemoteError, got %v", err)
	}
	if remoteErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", remoteErr.StatusCode)
	}
	if remoteErr.Detail != "upstream exploded" {
		t.Errorf("Detail = %q, want raw body", remoteErr.Detail)
	}
}

// TestController_OverHTTP drives the lifecycle controller against the remote
// store: start, complete, archive, then a rejected start.
func TestController_OverHTTP(t *testing.T) {
	client, _ := newBackend(t)
	ctx := context.Background()

	svc := app.NewSeasonService(client, fsm.New(), app.WithLogger(discardLogger()))

	created, err := svc.Create(ctx, validForm())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	started, err := svc.Start(ctx, created.ID, app.StartInput{})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if started.StartDate.Format(domain.DateLayout) != "2025-03-01" {
		t.Errorf("StartDate = %v, want planned date 2025-03-01", started.StartDate)
	}

	yield := 5000.0
	completed, err := svc.Complete(ctx, created.ID, app.CompleteInput{EndDate: "2025-09-01", ActualYieldKg: &yield})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != domain.StatusCompleted {
		t.Errorf("Status = %q, want COMPLETED", completed.Status)
	}

	if _, err := svc.Archive(ctx, created.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	_, err = svc.Start(ctx, created.ID, app.StartInput{})
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected *domain.TransitionError, got %v", err)
	}
	if trErr.Current != domain.StatusArchived || len(trErr.Allowed) != 0 {
		t.Errorf("got %+v, want ARCHIVED with no allowed targets", trErr)
	}

	history, err := client.History(ctx, created.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("got %d history entries, want 3", len(history))
	}
}
