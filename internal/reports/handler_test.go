package reports_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/reports"
	"github.com/one2ten/stetho-agent/internal/triage"
	"github.com/one2ten/stetho-agent/pkg/pagination"
)

type mockSystem struct {
	listFn      func(ctx context.Context, page pagination.PageRequest, filters reports.Filters) (*pagination.PageResult[reports.Report], error)
	findFn      func(ctx context.Context, id uuid.UUID) (*reports.Report, error)
	createFn    func(ctx context.Context, in triage.Input) (*reports.Report, error)
	audioFn     func(ctx context.Context, cmd reports.AudioCommand) (*reports.Report, error)
	exportFn    func(ctx context.Context, id uuid.UUID) (*reports.Blob, error)
	recordingFn func(ctx context.Context, id uuid.UUID) (*reports.Blob, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *reports.Handler {
	return newTestHandler(m, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters reports.Filters) (*pagination.PageResult[reports.Report], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*reports.Report, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, in triage.Input) (*reports.Report, error) {
	return m.createFn(ctx, in)
}

func (m *mockSystem) CreateFromAudio(ctx context.Context, cmd reports.AudioCommand) (*reports.Report, error) {
	return m.audioFn(ctx, cmd)
}

func (m *mockSystem) Export(ctx context.Context, id uuid.UUID) (*reports.Blob, error) {
	return m.exportFn(ctx, id)
}

func (m *mockSystem) Recording(ctx context.Context, id uuid.UUID) (*reports.Blob, error) {
	return m.recordingFn(ctx, id)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) Options() reports.Options {
	return reports.NewOptions(nil)
}

func newTestHandler(sys reports.System, maxUploadSize int64) *reports.Handler {
	return reports.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
		maxUploadSize,
	)
}

func setupMux(h *reports.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	group := h.Routes()
	for _, route := range group.Routes {
		mux.HandleFunc(route.Method+" "+group.Prefix+route.Pattern, route.Handler)
	}
	return mux
}

func serve(t *testing.T, sys *mockSystem, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	setupMux(newTestHandler(sys, 1<<20)).ServeHTTP(rec, req)
	return rec
}

var sampleID = uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")

func sampleReport() reports.Report {
	return reports.Report{
		ID:              sampleID,
		RiskLevel:       triage.RiskHigh,
		RiskScore:       60,
		UserMode:        triage.ModeGeneral,
		ImmediateAction: true,
		Result: triage.Report{
			Risk:       triage.RiskAssessment{Level: triage.RiskHigh, Score: 60, ImmediateAction: true},
			Disclaimer: triage.Disclaimer,
		},
		CreatedAt: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	var captured reports.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f reports.Filters) (*pagination.PageResult[reports.Report], error) {
			captured = f
			result := pagination.NewPageResult([]reports.Report{sampleReport()}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}

	rec := serve(t, sys, httptest.NewRequest("GET", "/reports?risk_level=high,critical&immediate_action=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(captured.RiskLevels) != 2 || captured.ImmediateAction == nil {
		t.Errorf("filters = %+v", captured)
	}

	var page pagination.PageResult[reports.Report]
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Data[0].ID != sampleID {
		t.Errorf("page = %+v", page)
	}
}

func TestHandlerSearch(t *testing.T) {
	var captured reports.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f reports.Filters) (*pagination.PageResult[reports.Report], error) {
			captured = f
			result := pagination.NewPageResult([]reports.Report{}, 0, 1, 20)
			return &result, nil
		},
	}

	body := `{"page":1,"page_size":10,"risk_levels":["critical"],"user_mode":"professional"}`
	rec := serve(t, sys, httptest.NewRequest("POST", "/reports/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(captured.RiskLevels) != 1 || captured.RiskLevels[0] != triage.RiskCritical {
		t.Errorf("risk levels = %v", captured.RiskLevels)
	}

	rec = serve(t, sys, httptest.NewRequest("POST", "/reports/search", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", rec.Code)
	}
}

func TestHandlerCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantCalled bool
	}{
		{"full input", `{"vitals":{"heart_rate":110,"systolic":130,"diastolic":85,"temperature":37.9},"user_mode":"professional"}`, nil, http.StatusCreated, true},
		{"empty body", "", nil, http.StatusCreated, true},
		{"malformed json", `{"vitals":`, nil, http.StatusBadRequest, false},
		{"rejected input", `{"vitals":{"heart_rate":900}}`, triage.ErrInvalidInput, http.StatusBadRequest, true},
		{"run crashed", `{}`, triage.ErrNodeCrashed, http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			sys := &mockSystem{
				createFn: func(_ context.Context, in triage.Input) (*reports.Report, error) {
					called = true
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					r := sampleReport()
					return &r, nil
				},
			}

			rec := serve(t, sys, httptest.NewRequest("POST", "/reports", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != tt.wantCalled {
				t.Errorf("create called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func multipartRequest(t *testing.T, filename string, data []byte, input string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if input != "" {
		if err := mw.WriteField("input", input); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/reports/audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlerUpload(t *testing.T) {
	var captured reports.AudioCommand
	sys := &mockSystem{
		audioFn: func(_ context.Context, cmd reports.AudioCommand) (*reports.Report, error) {
			captured = cmd
			r := sampleReport()
			return &r, nil
		},
	}

	req := multipartRequest(t, "beat.wav", []byte("RIFF0000WAVE"), `{"user_mode":"professional"}`)
	rec := serve(t, sys, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if captured.Filename != "beat.wav" || string(captured.Data) != "RIFF0000WAVE" {
		t.Errorf("command = %+v", captured)
	}
	if captured.Input.UserMode != triage.ModeProfessional {
		t.Errorf("input = %+v", captured.Input)
	}
}

func TestHandlerUploadFailures(t *testing.T) {
	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		audioErr   error
		wantStatus int
	}{
		{
			name:       "missing file",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "", nil, "") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed input",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "a.wav", []byte("x"), "{") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "recording over limit",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, "long.wav", bytes.Repeat([]byte{0}, 2<<20), "")
			},
			wantStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:       "classifier failed",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "a.wav", []byte("x"), "") },
			audioErr:   classifier.ErrClassificationFailed,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "classifier not configured",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "a.wav", []byte("x"), "") },
			audioErr:   classifier.ErrNotConfigured,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				audioFn: func(context.Context, reports.AudioCommand) (*reports.Report, error) {
					if tt.audioErr != nil {
						return nil, tt.audioErr
					}
					r := sampleReport()
					return &r, nil
				},
			}

			rec := serve(t, sys, tt.req(t))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerFind(t *testing.T) {
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*reports.Report, error) {
			if id != sampleID {
				return nil, reports.ErrNotFound
			}
			r := sampleReport()
			return &r, nil
		},
	}

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"found", "/reports/" + sampleID.String(), http.StatusOK},
		{"missing", "/reports/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/reports/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, sys, httptest.NewRequest("GET", tt.target, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerExport(t *testing.T) {
	sys := &mockSystem{
		exportFn: func(_ context.Context, id uuid.UUID) (*reports.Blob, error) {
			return &reports.Blob{
				Key:         "reports/" + id.String() + "/report.md",
				Filename:    "triage-report-20260504-080000.md",
				ContentType: "text/markdown; charset=utf-8",
				Content:     []byte("# Triage Report\n"),
			}, nil
		},
	}

	rec := serve(t, sys, httptest.NewRequest("GET", "/reports/"+sampleID.String()+"/export", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="triage-report-20260504-080000.md"` {
		t.Errorf("content disposition = %q", cd)
	}
	if rec.Body.String() != "# Triage Report\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandlerRecordingMissing(t *testing.T) {
	sys := &mockSystem{
		recordingFn: func(context.Context, uuid.UUID) (*reports.Blob, error) {
			return nil, reports.ErrNoRecording
		},
	}

	rec := serve(t, sys, httptest.NewRequest("GET", "/reports/"+sampleID.String()+"/recording", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerOptions(t *testing.T) {
	rec := serve(t, &mockSystem{}, httptest.NewRequest("GET", "/reports/options", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"audio_labels", "symptoms", "durations", "severities", "user_modes", "normal_label"} {
		if _, ok := body[key]; !ok {
			t.Errorf("options missing %q", key)
		}
	}
}

func TestHandlerDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			if id != sampleID {
				return reports.ErrNotFound
			}
			return nil
		},
	}

	rec := serve(t, sys, httptest.NewRequest("DELETE", "/reports/"+sampleID.String(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	rec = serve(t, sys, httptest.NewRequest("DELETE", "/reports/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRoutesDocumented(t *testing.T) {
	group := newTestHandler(&mockSystem{}, 1).Routes()
	for _, route := range group.Routes {
		if route.OpenAPI == nil {
			t.Errorf("%s %s has no OpenAPI operation", route.Method, route.Pattern)
		}
	}
}
