package reports

import (
	"context"

	"github.com/google/uuid"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/triage"
	"github.com/one2ten/stetho-agent/pkg/pagination"
)

// Classifier labels an auscultation recording.
type Classifier interface {
	Classify(ctx context.Context, filename string, audio []byte) (*classifier.Classification, error)
}

// System defines the public contract for report domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Report], error)

	Find(ctx context.Context, id uuid.UUID) (*Report, error)

	// Create runs a triage on in and persists the resulting report.
	Create(ctx context.Context, in triage.Input) (*Report, error)

	// CreateFromAudio stores the recording, classifies it, then runs a triage
	// with the classification as audio input.
	CreateFromAudio(ctx context.Context, cmd AudioCommand) (*Report, error)

	// Export returns the report rendered as Markdown, writing the rendering
	// to blob storage on first request.
	Export(ctx context.Context, id uuid.UUID) (*Blob, error)

	// Recording returns the audio uploaded with the report.
	Recording(ctx context.Context, id uuid.UUID) (*Blob, error)

	Delete(ctx context.Context, id uuid.UUID) error

	Options() Options
}
