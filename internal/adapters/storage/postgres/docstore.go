package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"shelter-partner/internal/ports/docstore"
)

// DocStore guarda documentos como JSONB, uno por fila (path = clave).
type DocStore struct {
	db *sql.DB
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

func (s *DocStore) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	patch, err := encode(fields)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $2::jsonb, updated_at = now()
		WHERE path = $1
	`, path, patch)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// UpdateFieldsIf usa containment (@>) sobre campos top-level escalares.
func (s *DocStore) UpdateFieldsIf(ctx context.Context, path string, expect, fields map[string]any) error {
	if len(expect) == 0 {
		return s.UpdateFields(ctx, path, fields)
	}
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	patch, err := encode(fields)
	if err != nil {
		return err
	}
	cond, err := encode(expect)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = data || $2::jsonb, updated_at = now()
		WHERE path = $1 AND data @> $3::jsonb
	`, path, patch, cond)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	exists, err := s.exists(ctx, path)
	if err != nil {
		return err
	}
	if !exists {
		return docstore.ErrNotFound
	}
	return docstore.ErrPreconditionFailed
}

func (s *DocStore) GetDocument(ctx context.Context, path string) (docstore.Document, error) {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return docstore.Document{}, err
	}

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}

	data, err := decode(raw)
	if err != nil {
		return docstore.Document{}, err
	}
	return docstore.Document{Path: path, Data: data}, nil
}

// AppendToArrayField: el NOT EXISTS compara jsonb completo (igualdad, no containment).
func (s *DocStore) AppendToArrayField(ctx context.Context, path, field string, elem map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	if field == "" {
		return fmt.Errorf("%w: empty field", docstore.ErrInvalidPath)
	}
	e, err := encode(elem)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET data = jsonb_set(
				data,
				ARRAY[$2::text],
				(CASE WHEN jsonb_typeof(data->($2::text)) = 'array' THEN data->($2::text) ELSE '[]'::jsonb END)
					|| jsonb_build_array($3::jsonb),
				true),
			updated_at = now()
		WHERE path = $1
		  AND COALESCE(jsonb_typeof(data->($2::text)), 'null') IN ('array', 'null')
		  AND NOT EXISTS (
			SELECT 1
			FROM jsonb_array_elements(
				CASE WHEN jsonb_typeof(data->($2::text)) = 'array' THEN data->($2::text) ELSE '[]'::jsonb END
			) AS el
			WHERE el = $3::jsonb
		  )
	`, path, field, e)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// 0 filas: no existe el documento, el campo no es array, o el elemento ya estaba (unión).
	var typ sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT jsonb_typeof(data->($2::text)) FROM documents WHERE path = $1`,
		path, field,
	).Scan(&typ)
	if errors.Is(err, sql.ErrNoRows) {
		return docstore.ErrNotFound
	}
	if err != nil {
		return err
	}
	if typ.Valid && typ.String != "array" && typ.String != "null" {
		return fmt.Errorf("%w: %s", docstore.ErrNotArray, field)
	}
	return nil
}

func (s *DocStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	b, err := encode(data)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (path, collection, data, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (path) DO UPDATE
		SET data = EXCLUDED.data, updated_at = now()
	`, path, docstore.Parent(path), b)
	return err
}

func (s *DocStore) ListDocuments(ctx context.Context, collectionPath string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT path, data
		FROM documents
		WHERE collection = $1
		ORDER BY path ASC
	`, collectionPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]docstore.Document, 0)
	for rows.Next() {
		var (
			p   string
			raw []byte
		)
		if err := rows.Scan(&p, &raw); err != nil {
			return nil, err
		}
		data, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, docstore.Document{Path: p, Data: data})
	}
	return out, rows.Err()
}

func (s *DocStore) exists(ctx context.Context, path string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE path = $1)`, path).Scan(&ok)
	return ok, err
}

func encode(v map[string]any) (string, error) {
	if v == nil {
		v = map[string]any{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("docstore: marshal json: %w", err)
	}
	return string(b), nil
}

func decode(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("docstore: unmarshal json: %w", err)
	}
	return out, nil
}
