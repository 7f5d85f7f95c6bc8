package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/one2ten/stetho-agent/pkg/pagination"
	"github.com/one2ten/stetho-agent/pkg/query"
	"github.com/one2ten/stetho-agent/pkg/repository"
)

const returning = "RETURNING id, name, stage, instructions, description, active"

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New returns the database-backed System.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "prompts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error) {
	page.Normalize(r.pagination)

	qb := filters.Apply(
		query.NewBuilder(projection, defaultSort).
			WhereSearch(page.Search, "Name", "Description"),
	).OrderByFields(page.Sort)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count prompts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanPrompt)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrompt)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &p, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Prompt, error) {
	if err := cmd.normalize(); err != nil {
		return nil, err
	}

	return r.write(ctx, "prompt created",
		"INSERT INTO prompts (name, stage, instructions, description) VALUES ($1, $2, $3, $4) "+returning,
		cmd.Name, cmd.Stage, cmd.Instructions, cmd.Description,
	)
}

func (r *repo) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Prompt, error) {
	c := CreateCommand(cmd)
	if err := c.normalize(); err != nil {
		return nil, err
	}

	return r.write(ctx, "prompt updated",
		"UPDATE prompts SET name = $1, stage = $2, instructions = $3, description = $4 WHERE id = $5 "+returning,
		c.Name, c.Stage, c.Instructions, c.Description, id,
	)
}

func (r *repo) Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	return r.write(ctx, "prompt deactivated",
		"UPDATE prompts SET active = false WHERE id = $1 "+returning,
		id,
	)
}

// Activate clears the stage's current override before setting the new
// one, since at most one prompt per stage may be active.
func (r *repo) Activate(ctx context.Context, id uuid.UUID) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		var stage Stage
		if err := tx.QueryRowContext(ctx, "SELECT stage FROM prompts WHERE id = $1 FOR UPDATE", id).Scan(&stage); err != nil {
			return Prompt{}, err
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE prompts SET active = false WHERE stage = $1 AND active AND id <> $2",
			stage, id,
		); err != nil {
			return Prompt{}, fmt.Errorf("clear active %s prompt: %w", stage, err)
		}

		return repository.QueryOne(ctx, tx, "UPDATE prompts SET active = true WHERE id = $1 "+returning, []any{id}, scanPrompt)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info("prompt activated", "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM prompts WHERE id = $1", id); err != nil {
		return dbErrors.Map(err)
	}

	r.logger.Info("prompt deleted", "id", id)
	return nil
}

// Instructions returns the active override for stage, falling back to the
// built-in text when no override is active.
func (r *repo) Instructions(ctx context.Context, stage Stage) (string, error) {
	stage, err := ParseStage(string(stage))
	if err != nil {
		return "", err
	}

	q, args := query.NewBuilder(projection).
		WhereEquals("Stage", stage).
		WhereEquals("Active", true).
		BuildSingleOrNull()

	p, err := repository.QueryOne(ctx, r.db, q, args, scanPrompt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Instructions(stage)
	case err != nil:
		return "", fmt.Errorf("active %s prompt: %w", stage, err)
	}
	return p.Instructions, nil
}

func (r *repo) Spec(_ context.Context, stage Stage) (string, error) {
	return Spec(stage)
}

// write runs a single-row statement ending in RETURNING inside a
// transaction and logs msg on success.
func (r *repo) write(ctx context.Context, msg, q string, args ...any) (*Prompt, error) {
	p, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Prompt, error) {
		return repository.QueryOne(ctx, tx, q, args, scanPrompt)
	})
	if err != nil {
		return nil, dbErrors.Map(err)
	}

	r.logger.Info(msg, "id", p.ID, "name", p.Name, "stage", p.Stage)
	return &p, nil
}
