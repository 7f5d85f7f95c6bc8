package classifier_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/one2ten/stetho-agent/internal/classifier"
)

func newClient(t *testing.T, url string) *classifier.Client {
	t.Helper()
	cfg := &classifier.Config{BaseURL: url, MaxRetries: 1}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return classifier.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "beat.wav" || string(data) != "RIFF" {
			t.Errorf("upload: got %s %q", header.Filename, data)
		}
		w.Write([]byte(`{"classification":"Murmur","confidence":0.82,"probabilities":{"Normal":0.1,"Murmur":0.82,"Artifact":0.08}}`))
	}))
	defer srv.Close()

	got, err := newClient(t, srv.URL).Classify(context.Background(), "beat.wav", []byte("RIFF"))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if got.Label != "Murmur" || got.Confidence != 0.82 {
		t.Errorf("got label=%q confidence=%v", got.Label, got.Confidence)
	}
	if got.FileName != "beat.wav" {
		t.Errorf("file name: got %q", got.FileName)
	}
}

func TestClassifyFillsLabelFromProbabilities(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("```json\n{\"probabilities\": {\"Normal\": 0.3, \"Extrahls\": 0.7,}}\n```"))
	}))
	defer srv.Close()

	got, err := newClient(t, srv.URL).Classify(context.Background(), "a.wav", []byte("x"))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if got.Label != "Extrahls" || got.Confidence != 0.7 {
		t.Errorf("got label=%q confidence=%v", got.Label, got.Confidence)
	}
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
	}{
		{"bad request", http.StatusUnprocessableEntity, `{"detail":"unreadable"}`, 1},
		{"empty payload", http.StatusOK, `{}`, 1},
		{"garbage", http.StatusOK, `not json at all`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newClient(t, srv.URL).Classify(context.Background(), "a.wav", []byte("x"))
			if !errors.Is(err, classifier.ErrClassificationFailed) {
				t.Errorf("error: got %v, want ErrClassificationFailed", err)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("calls: got %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestClassifyNotConfigured(t *testing.T) {
	c := newClient(t, "")
	if c.Enabled() {
		t.Fatal("client without base url should be disabled")
	}
	if _, err := c.Classify(context.Background(), "a.wav", nil); !errors.Is(err, classifier.ErrNotConfigured) {
		t.Errorf("error: got %v, want ErrNotConfigured", err)
	}
}

func TestTopClassTieBreak(t *testing.T) {
	c := classifier.Classification{Probabilities: map[string]float64{"Wheeze": 0.5, "Crackle": 0.5}}
	label, score := c.TopClass()
	if label != "Crackle" || score != 0.5 {
		t.Errorf("got %q %v, want Crackle 0.5", label, score)
	}
}
