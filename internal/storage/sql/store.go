package sql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/bcnelson/qr-template-studio/internal/storage"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var embedMigrations embed.FS

var _ storage.Storage = (*Store)(nil)

// Supported drivers. The migration directory is named after the driver.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// isUniqueViolation checks if an error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// SQLite
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL
	if strings.Contains(errStr, "duplicate key value violates unique constraint") {
		return true
	}
	return false
}

// wrapUniqueError converts UNIQUE violations to domain.ErrAlreadyExists.
func wrapUniqueError(err error) error {
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

// Store implements the storage.Storage interface using SQL.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

// New connects to the database and applies pending migrations. Migration
// progress is reported through logger.
func New(driver, dsn string, logger logrus.FieldLogger) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time avoids "database is locked" under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	// Run migrations
	goose.SetBaseFS(embedMigrations)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect(driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db.DB, path.Join("migrations", driver)); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db, driver: driver, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// helper to get the correct database interface
type dbInterface interface {
	sqlx.ExtContext
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ============================================
// Journey types
// ============================================

func (s *Store) ListJourneyTypes(ctx context.Context) ([]domain.JourneyType, error) {
	var journeys []domain.JourneyType
	err := s.db.SelectContext(ctx, &journeys, `SELECT id, name FROM journey_types ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing journey types: %w", err)
	}
	return journeys, nil
}

// ============================================
// Templates
// ============================================

func (s *Store) ListTemplates(ctx context.Context) ([]*domain.Template, error) {
	return loadTemplates(ctx, s.db, nil)
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*domain.Template, error) {
	return getTemplate(ctx, s.db, id)
}

func getTemplate(ctx context.Context, db dbInterface, id int64) (*domain.Template, error) {
	templates, err := loadTemplates(ctx, db, sq.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	return templates[0], nil
}

func (s *Store) CreateTemplate(ctx context.Context, t *domain.Template) error {
	now := s.now()
	query, args, err := sq.Insert("templates").
		Columns("name", "journey_id", "version", "created_at", "updated_at").
		Values(t.Name, t.JourneyID, 1, now, now).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	var id int64
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return fmt.Errorf("creating template: %w", wrapUniqueError(err))
	}
	t.ID = id
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []*domain.Tag{}
	}
	return nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *domain.Template, expectedVersion int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now()
		if _, _, err := bumpVersion(ctx, tx, t.ID, expectedVersion, now); err != nil {
			return err
		}

		query, args, err := sq.Update("templates").
			Set("name", t.Name).
			Set("journey_id", t.JourneyID).
			Where(sq.Eq{"id": t.ID}).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("building update query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("updating template: %w", err)
		}
		for _, table := range []string{"template_tags", "template_subtags"} {
			if _, err := tx.ExecContext(ctx,
				`UPDATE `+table+` SET journey_id = $1 WHERE template_id = $2 AND journey_id <> $1`,
				t.JourneyID, t.ID); err != nil {
				return fmt.Errorf("updating %s journey: %w", table, err)
			}
		}

		updated, err := getTemplate(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		*t = *updated
		return nil
	})
}

func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"template_subtags", "template_tags"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE template_id = $1`, id); err != nil {
				return fmt.Errorf("deleting from %s: %w", table, err)
			}
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("deleting template: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// bumpVersion increments the template version when expectedVersion is zero
// or matches, and returns the template's journey id and new version.
func bumpVersion(ctx context.Context, tx *sqlx.Tx, id int64, expectedVersion int, now time.Time) (string, int, error) {
	var row struct {
		JourneyID string `db:"journey_id"`
		Version   int    `db:"version"`
	}
	err := tx.QueryRowxContext(ctx,
		`UPDATE templates SET version = version + 1, updated_at = $1
		 WHERE id = $2 AND ($3 = 0 OR version = $3)
		 RETURNING journey_id, version`,
		now, id, expectedVersion).StructScan(&row)
	if err == nil {
		return row.JourneyID, row.Version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("updating template version: %w", err)
	}

	var current int
	err = tx.GetContext(ctx, &current, `SELECT version FROM templates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, fmt.Errorf("template %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return "", 0, fmt.Errorf("reading template version: %w", err)
	}
	return "", 0, fmt.Errorf("template %d is at version %d, not %d: %w", id, current, expectedVersion, domain.ErrPreconditionFailed)
}

// ============================================
// Tags
// ============================================

func (s *Store) AddTag(ctx context.Context, templateID int64, expectedVersion int, tag *domain.Tag) (int, error) {
	var version int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now()
		journeyID, v, err := bumpVersion(ctx, tx, templateID, expectedVersion, now)
		if err != nil {
			return err
		}

		var next struct {
			TagID    int `db:"tag_id"`
			Position int `db:"position"`
		}
		err = tx.GetContext(ctx, &next,
			`SELECT COALESCE(MAX(tag_id), 0) + 1 AS tag_id, COALESCE(MAX(position), 0) + 1 AS position
			 FROM template_tags WHERE template_id = $1`, templateID)
		if err != nil {
			return fmt.Errorf("reading next tag id: %w", err)
		}

		tagID := tag.TagID
		if tagID == 0 {
			tagID = next.TagID
		}

		query, args, err := sq.Insert("template_tags").
			Columns("template_id", "tag_id", "position", "journey_id", "tag_group", "is_static", "is_dynamic",
				"min_length", "max_length", "content_desc", "json_key", "content_value", "format",
				"required", "usage", "valid", "verify_json", "has_child", "created_at", "updated_at").
			Values(templateID, tagID, next.Position, journeyID, tag.TagGroup, tag.IsStatic, tag.IsDynamic,
				tag.MinLength, tag.MaxLength, tag.ContentDesc, tag.JSONKey, tag.ContentValue, tag.Format,
				tag.Required, tag.Usage, tag.Valid, tag.VerifyJSON, tag.HasChild, now, now).
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("building insert query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if err := wrapUniqueError(err); errors.Is(err, domain.ErrAlreadyExists) {
				return fmt.Errorf("tag %d in template %d: %w", tagID, templateID, err)
			}
			return fmt.Errorf("inserting tag: %w", err)
		}

		tag.TagID = tagID
		tag.TemplateID = templateID
		tag.JourneyID = journeyID
		tag.CreatedAt = now
		tag.UpdatedAt = now
		tag.Subtags = nil
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (s *Store) AddSubtag(ctx context.Context, templateID int64, parentTagID int, parentSequence *int64, expectedVersion int, sub *domain.Subtag) (int, error) {
	var version int
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		now := s.now()
		journeyID, v, err := bumpVersion(ctx, tx, templateID, expectedVersion, now)
		if err != nil {
			return err
		}

		var exists int
		err = tx.GetContext(ctx, &exists,
			`SELECT 1 FROM template_tags WHERE template_id = $1 AND tag_id = $2`, templateID, parentTagID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parent tag %d: %w", parentTagID, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("reading parent tag: %w", err)
		}

		if parentSequence != nil {
			err = tx.GetContext(ctx, &exists,
				`SELECT 1 FROM template_subtags
				 WHERE sub_tag_sequence = $1 AND template_id = $2 AND parent_template_tag_id = $3`,
				*parentSequence, templateID, parentTagID)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("parent subtag %d: %w", *parentSequence, domain.ErrNotFound)
			}
			if err != nil {
				return fmt.Errorf("reading parent subtag: %w", err)
			}
		}

		query, args, err := sq.Insert("template_subtags").
			Columns("template_id", "parent_template_tag_id", "parent_sub_tag_id", "sub_tag_id", "journey_id",
				"min_length", "max_length", "content_desc", "json_key", "content_value", "format",
				"required", "usage", "valid", "verify_json", "has_child", "created_at", "updated_at").
			Values(templateID, parentTagID, parentSequence, sub.SubTagID, journeyID,
				sub.MinLength, sub.MaxLength, sub.ContentDesc, sub.JSONKey, sub.ContentValue, sub.Format,
				sub.Required, sub.Usage, sub.Valid, sub.VerifyJSON, sub.HasChild, now, now).
			Suffix("RETURNING sub_tag_sequence").
			PlaceholderFormat(sq.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("building insert query: %w", err)
		}
		var sequence int64
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&sequence); err != nil {
			return fmt.Errorf("inserting subtag: %w", err)
		}

		subTagID := sub.SubTagID
		if subTagID == 0 {
			subTagID = sequence
			if _, err := tx.ExecContext(ctx,
				`UPDATE template_subtags SET sub_tag_id = $1 WHERE sub_tag_sequence = $2`, subTagID, sequence); err != nil {
				return fmt.Errorf("setting subtag id: %w", err)
			}
		}

		if parentSequence == nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE template_tags SET has_child = '1', updated_at = $1 WHERE template_id = $2 AND tag_id = $3`,
				now, templateID, parentTagID)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE template_subtags SET has_child = '1', updated_at = $1 WHERE sub_tag_sequence = $2`,
				now, *parentSequence)
		}
		if err != nil {
			return fmt.Errorf("marking parent: %w", err)
		}

		sub.SubTagSequence = sequence
		sub.SubTagID = subTagID
		sub.TemplateID = templateID
		sub.JourneyID = journeyID
		sub.ParentTemplateTagID = parentTagID
		sub.ParentSubTagID = nil
		if parentSequence != nil {
			seq := *parentSequence
			sub.ParentSubTagID = &seq
		}
		sub.CreatedAt = now
		sub.UpdatedAt = now
		sub.Subtags = nil
		version = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}
