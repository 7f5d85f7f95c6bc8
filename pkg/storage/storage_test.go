package storage_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/one2ten/stetho-agent/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := storage.Config{ConnectionString: azuriteConnString}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if cfg.ContainerName != "stetho" {
			t.Errorf("container: got %s, want stetho", cfg.ContainerName)
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("STETHO_TEST_CONTAINER", "heart-sounds")
		t.Setenv("STETHO_TEST_CONN", "env-connection")

		cfg := storage.Config{ContainerName: "recordings", ConnectionString: "file-connection"}
		err := cfg.Finalize(&storage.Env{
			ContainerName:    "STETHO_TEST_CONTAINER",
			ConnectionString: "STETHO_TEST_CONN",
		})
		if err != nil {
			t.Fatalf("finalize: %v", err)
		}
		if cfg.ContainerName != "heart-sounds" || cfg.ConnectionString != "env-connection" {
			t.Errorf("got %+v", cfg)
		}
	})

	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{"missing connection", storage.Config{ContainerName: "recordings"}, "connection_string required"},
		{"uppercase container", storage.Config{ContainerName: "Recordings", ConnectionString: "x"}, "not a valid container name"},
		{"double hyphen", storage.Config{ContainerName: "heart--sounds", ConnectionString: "x"}, "not a valid container name"},
		{"too short", storage.Config{ContainerName: "ab", ConnectionString: "x"}, "not a valid container name"},
		{"trailing hyphen", storage.Config{ContainerName: "sounds-", ConnectionString: "x"}, "not a valid container name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := storage.Config{ContainerName: "stetho", ConnectionString: "base"}
	cfg.Merge(&storage.Config{ContainerName: "recordings"})

	if cfg.ContainerName != "recordings" || cfg.ConnectionString != "base" {
		t.Errorf("got %+v", cfg)
	}
}

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sys, err := storage.New(&storage.Config{ContainerName: "stetho", ConnectionString: azuriteConnString}, logger)
	if err != nil || sys == nil {
		t.Fatalf("New() = %v, %v", sys, err)
	}

	if _, err := storage.New(&storage.Config{ContainerName: "stetho", ConnectionString: "garbage"}, logger); err == nil {
		t.Error("expected error for malformed connection string")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		parts   []string
		want    string
		wantErr error
	}{
		{"recording", []string{"recordings", "0b7e", "beat.wav"}, "recordings/0b7e/beat.wav", nil},
		{"single segment", []string{"report.md"}, "report.md", nil},
		{"empty", []string{""}, "", storage.ErrEmptyKey},
		{"blank segment", []string{"recordings", "", "beat.wav"}, "", storage.ErrInvalidKey},
		{"traversal", []string{"recordings", "..", "secrets"}, "", storage.ErrInvalidKey},
		{"absolute", []string{"/etc", "passwd"}, "", storage.ErrInvalidKey},
		{"backslash", []string{`recordings\beat.wav`}, "", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storage.Key(tt.parts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("download a: %w", storage.ErrNotFound), http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", storage.ErrInvalidKey, "../x"), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
