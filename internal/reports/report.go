// Package reports persists completed triage runs and serves them over HTTP.
// A report row carries the indexed summary of a run (risk level, score,
// audience, immediate-action flag) next to the full triage report as JSONB.
// Uploaded recordings and Markdown exports live in blob storage.
package reports

import (
	"time"

	"github.com/google/uuid"

	"github.com/one2ten/stetho-agent/internal/reference"
	"github.com/one2ten/stetho-agent/internal/triage"
)

// Report is a persisted triage run.
type Report struct {
	ID              uuid.UUID        `json:"id"`
	RiskLevel       triage.RiskLevel `json:"risk_level"`
	RiskScore       float64          `json:"risk_score"`
	UserMode        triage.UserMode  `json:"user_mode"`
	ImmediateAction bool             `json:"immediate_action"`
	AudioLabel      *string          `json:"audio_label"`
	RecordingKey    *string          `json:"recording_key"`
	ExportKey       *string          `json:"export_key"`
	Result          triage.Report    `json:"result"`
	CreatedAt       time.Time        `json:"created_at"`
}

// AudioCommand carries a recording to classify before the run.
// Input.Audio is replaced by the classifier output.
type AudioCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	Input       triage.Input
}

// Blob is a stored file returned for download.
type Blob struct {
	Key         string
	Filename    string
	ContentType string
	Content     []byte
}

// Options lists the categorical values accepted as triage input.
type Options struct {
	reference.Options
	Severities []triage.Severity `json:"severities"`
	UserModes  []triage.UserMode `json:"user_modes"`
}

// NewOptions collects the input options from reference data.
func NewOptions(ref *reference.Data) Options {
	if ref == nil {
		ref = reference.Default()
	}
	return Options{
		Options:    ref.Options,
		Severities: triage.Severities,
		UserModes:  []triage.UserMode{triage.ModeGeneral, triage.ModeProfessional},
	}
}
