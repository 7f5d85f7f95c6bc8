package reports

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/triage"
	"github.com/one2ten/stetho-agent/pkg/pagination"
	"github.com/one2ten/stetho-agent/pkg/query"
	"github.com/one2ten/stetho-agent/pkg/repository"
	"github.com/one2ten/stetho-agent/pkg/storage"
)

const markdownContentType = "text/markdown; charset=utf-8"

type repo struct {
	db         *sql.DB
	storage    storage.System
	runtime    *triage.Runtime
	classifier Classifier
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a report repository implementing the System interface.
// classify may be nil, in which case audio uploads are rejected.
func New(
	db *sql.DB,
	store storage.System,
	rt *triage.Runtime,
	classify Classifier,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		runtime:    rt,
		classifier: classify,
		logger:     logger.With("system", "reports"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) Options() Options {
	return NewOptions(r.runtime.Reference)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Report], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "RiskLevel", "AudioLabel")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReport)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Report, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rep, err := repository.QueryOne(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &rep, nil
}

func (r *repo) Create(ctx context.Context, in triage.Input) (*Report, error) {
	return r.create(ctx, uuid.New(), in, nil)
}

func (r *repo) CreateFromAudio(ctx context.Context, cmd AudioCommand) (*Report, error) {
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty recording", ErrInvalidRecording)
	}
	if r.classifier == nil {
		return nil, classifier.ErrNotConfigured
	}

	id := uuid.New()
	key, err := storage.Key("recordings", id.String(), sanitizeFilename(cmd.Filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecording, err)
	}

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload recording: %w", err)
	}

	cls, err := r.classifier.Classify(ctx, cmd.Filename, cmd.Data)
	if err != nil {
		r.discard(ctx, key)
		return nil, err
	}

	in := cmd.Input
	in.Audio = cls

	rep, err := r.create(ctx, id, in, &key)
	if err != nil {
		r.discard(ctx, key)
		return nil, err
	}
	return rep, nil
}

func (r *repo) create(ctx context.Context, id uuid.UUID, in triage.Input, recordingKey *string) (*Report, error) {
	result, err := triage.Run(ctx, r.runtime, in)
	if err != nil {
		return nil, err
	}

	content, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode report content: %w", err)
	}

	var audioLabel *string
	if result.Audio != nil {
		audioLabel = &result.Audio.Label
	}

	q := `
		INSERT INTO reports(id, risk_level, risk_score, user_mode, immediate_action, audio_label, recording_key, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + returning

	args := []any{
		id,
		string(result.Risk.Level),
		result.Risk.Score,
		string(result.UserMode),
		result.Risk.ImmediateAction,
		audioLabel,
		recordingKey,
		content,
		result.Timestamp,
	}

	rep, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Report, error) {
		return repository.QueryOne(ctx, tx, q, args, scanReport)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("report created",
		"id", rep.ID,
		"risk_level", rep.RiskLevel,
		"degraded", result.Degraded(),
	)
	return &rep, nil
}

func (r *repo) Export(ctx context.Context, id uuid.UUID) (*Blob, error) {
	rep, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	blob := &Blob{
		Key:         buildExportKey(id),
		Filename:    fmt.Sprintf("triage-report-%s.md", rep.CreatedAt.UTC().Format("20060102-150405")),
		ContentType: markdownContentType,
	}

	if rep.ExportKey != nil {
		content, _, err := r.read(ctx, *rep.ExportKey)
		if err == nil {
			blob.Key = *rep.ExportKey
			blob.Content = content
			return blob, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		r.logger.Warn("export blob missing, rendering again", "id", id, "key", *rep.ExportKey)
	}

	blob.Content = []byte(rep.Result.Markdown())

	if err := r.storage.Upload(ctx, blob.Key, bytes.NewReader(blob.Content), markdownContentType); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	if err := repository.ExecExpectOne(
		ctx, r.db,
		"UPDATE reports SET export_key = $1 WHERE id = $2",
		blob.Key, id,
	); err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("report exported", "id", id, "key", blob.Key)
	return blob, nil
}

func (r *repo) Recording(ctx context.Context, id uuid.UUID) (*Blob, error) {
	rep, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.RecordingKey == nil {
		return nil, ErrNoRecording
	}

	content, contentType, err := r.read(ctx, *rep.RecordingKey)
	if err != nil {
		return nil, err
	}

	return &Blob{
		Key:         *rep.RecordingKey,
		Filename:    path.Base(*rep.RecordingKey),
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	rep, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM reports WHERE id = $1", id); err != nil {
		return dbErrors.Map(err)
	}

	for _, key := range []*string{rep.RecordingKey, rep.ExportKey} {
		if key != nil {
			r.discard(ctx, *key)
		}
	}

	r.logger.Info("report deleted", "id", id)
	return nil
}

func (r *repo) read(ctx context.Context, key string) ([]byte, string, error) {
	obj, err := r.storage.Download(ctx, key)
	if err != nil {
		return nil, "", err
	}
	defer obj.Body.Close()

	content, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read blob %s: %w", key, err)
	}

	contentType := obj.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	return content, contentType, nil
}

// discard removes a blob whose owning row was never written or was deleted.
func (r *repo) discard(ctx context.Context, key string) {
	if err := r.storage.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.Warn("blob delete failed", "key", key, "error", err)
	}
}

func buildExportKey(id uuid.UUID) string {
	return fmt.Sprintf("reports/%s/report.md", id)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" || name == "" {
		name = "recording.wav"
	}
	return url.PathEscape(name)
}
