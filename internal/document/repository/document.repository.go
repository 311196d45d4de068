package repository

import (
	"context"
	"database/sql"
	"errors"
	"notevault/internal/document/model"
	"notevault/pkg/logger"
	"strings"
)

const documentColumns = `id, title, content, is_public, owner_id, created_at, updated_at`

// DocumentRepository is the Postgres document store. It does no
// authorization; callers decide who may touch which row.
type DocumentRepository struct {
	DB *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{DB: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (model.Document, error) {
	var d model.Document
	err := s.Scan(&d.ID, &d.Title, &d.Content, &d.IsPublic, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	return d, err
}

func (r *DocumentRepository) Insert(ctx context.Context, nd model.NewDocument) (model.Document, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO documents (title, content, is_public, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+documentColumns,
		nd.Title, nd.Content, nd.IsPublic, nd.OwnerID)
	d, err := scanDocument(row)
	if err != nil {
		logger.Sugar.Errorf("Failed to create document: %v", err)
	}
	return d, err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (model.Document, bool, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get doc %d: %v", id, err)
		return model.Document{}, false, err
	}
	return d, true, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Document, error) {
	docs, err := r.query(ctx, `SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY id ASC`, ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to get documents for user %s: %v", ownerID, err)
	}
	return docs, err
}

// Update applies the non-nil fields of p. updated_at always moves forward,
// even when two writes land within the clock's resolution.
func (r *DocumentRepository) Update(ctx context.Context, id int64, p model.Patch) (model.Document, bool, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE documents SET
			title = COALESCE($2, title),
			content = COALESCE($3, content),
			is_public = COALESCE($4, is_public),
			updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
		WHERE id = $1
		RETURNING `+documentColumns,
		id, nullString(p.Title), nullString(p.Content), nullBool(p.IsPublic))
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Document{}, false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update doc %d: %v", id, err)
		return model.Document{}, false, err
	}
	return d, true, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete doc %d: %v", id, err)
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SearchByOwner does a case-insensitive substring match. An empty query
// matches every document the owner has.
func (r *DocumentRepository) SearchByOwner(ctx context.Context, ownerID, query string, scope model.SearchScope) ([]model.Document, error) {
	if query == "" {
		return r.ListByOwner(ctx, ownerID)
	}

	where := `title ILIKE $2 ESCAPE '\'`
	if scope == model.ScopeTitleContent {
		where = `(title ILIKE $2 ESCAPE '\' OR content ILIKE $2 ESCAPE '\')`
	}
	docs, err := r.query(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 AND `+where+` ORDER BY id ASC`,
		ownerID, "%"+escapeLike(query)+"%")
	if err != nil {
		logger.Sugar.Errorf("Failed to search documents for user %s: %v", ownerID, err)
	}
	return docs, err
}

func (r *DocumentRepository) query(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
