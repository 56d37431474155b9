package docstore

import (
	"context"
	"errors"
	"reflect"
)

var (
	// ErrNotFound indica documento ausente (distinto de un error de transporte).
	ErrNotFound = errors.New("document not found")
	// ErrPreconditionFailed: el documento existe pero no cumple los campos esperados.
	ErrPreconditionFailed = errors.New("document precondition failed")
	ErrInvalidPath        = errors.New("invalid document path")
	// ErrNotArray: AppendToArrayField sobre un campo que existe y no es array. No se pisa.
	ErrNotArray = errors.New("field is not an array")
)

// Document es un documento leído del store.
type Document struct {
	Path string
	Data map[string]any
}

// Float devuelve un campo numérico como float64.
// Los backends devuelven números con tipos distintos (float64, int32, int64...).
func (d Document) Float(field string) (float64, bool) {
	v, ok := d.Data[field]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func (d Document) String(field string) (string, bool) {
	v, ok := d.Data[field].(string)
	return v, ok
}

func (d Document) Bool(field string) (bool, bool) {
	v, ok := d.Data[field].(bool)
	return v, ok
}

// Maps devuelve un campo array cuyos elementos son objetos.
func (d Document) Maps(field string) []map[string]any {
	raw, ok := d.Data[field].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Store es el contrato key-document que consume el dominio.
// Cada escritura afecta a un solo documento y es atómica a nivel documento.
type Store interface {
	// UpdateFields actualiza parcialmente campos top-level. ErrNotFound si no existe.
	UpdateFields(ctx context.Context, path string, fields map[string]any) error

	// UpdateFieldsIf actualiza solo si cada campo de expect es igual al valor guardado.
	UpdateFieldsIf(ctx context.Context, path string, expect, fields map[string]any) error

	GetDocument(ctx context.Context, path string) (Document, error)

	// AppendToArrayField agrega elem al array field con semántica de unión de conjuntos.
	AppendToArrayField(ctx context.Context, path, field string, elem map[string]any) error

	// SetDocument crea o reemplaza el documento completo.
	SetDocument(ctx context.Context, path string, data map[string]any) error

	// ListDocuments lista los documentos hijos directos de una colección.
	ListDocuments(ctx context.Context, collectionPath string) ([]Document, error)
}

// ContainsElement reporta si items ya contiene un elemento igual a elem.
// Lo usan los backends que no tienen unión nativa.
func ContainsElement(items []any, elem map[string]any) bool {
	for _, it := range items {
		if reflect.DeepEqual(it, elem) {
			return true
		}
	}
	return false
}

// MatchesFields compara campos top-level con igualdad profunda.
func MatchesFields(data, expect map[string]any) bool {
	for k, want := range expect {
		got, ok := data[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
