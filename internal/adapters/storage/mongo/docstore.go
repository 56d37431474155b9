package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shelter-partner/internal/ports/docstore"
)

const (
	DefaultCollection = "documents"

	codeBadValue = 2

	fieldID         = "_id"
	fieldCollection = "_collection"
)

var ErrReservedField = errors.New("reserved field name")

// Connect abre el cliente y verifica con ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// DocStore guarda cada documento en una sola colección: _id = path,
// _collection = colección padre, el resto de campos top-level tal cual.
type DocStore struct {
	col *mongo.Collection
}

func NewDocStore(col *mongo.Collection) *DocStore {
	return &DocStore{col: col}
}

// EnsureIndexes crea el índice usado por ListDocuments.
func (s *DocStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldCollection, Value: 1}, {Key: fieldID, Value: 1}},
	})
	return err
}

func (s *DocStore) UpdateFields(ctx context.Context, path string, fields map[string]any) error {
	return s.UpdateFieldsIf(ctx, path, nil, fields)
}

func (s *DocStore) UpdateFieldsIf(ctx context.Context, path string, expect, fields map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	if err := checkFields(fields); err != nil {
		return err
	}
	if err := checkFields(expect); err != nil {
		return err
	}

	filter := bson.D{{Key: fieldID, Value: path}}
	for _, k := range sortedKeys(expect) {
		filter = append(filter, bson.E{Key: k, Value: ordered(expect[k])})
	}

	set := bson.D{}
	for _, k := range sortedKeys(fields) {
		set = append(set, bson.E{Key: k, Value: ordered(fields[k])})
	}

	res, err := s.col.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if len(expect) == 0 {
		return docstore.ErrNotFound
	}

	n, err := s.col.CountDocuments(ctx, bson.D{{Key: fieldID, Value: path}})
	if err != nil {
		return err
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return docstore.ErrPreconditionFailed
}

func (s *DocStore) GetDocument(ctx context.Context, path string) (docstore.Document, error) {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return docstore.Document{}, err
	}

	var raw bson.M
	err := s.col.FindOne(ctx, bson.D{{Key: fieldID, Value: path}}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return docstore.Document{}, docstore.ErrNotFound
		}
		return docstore.Document{}, err
	}
	return toDocument(path, raw), nil
}

// AppendToArrayField usa $addToSet. El elemento va como bson.D con claves
// ordenadas: Mongo compara documentos embebidos respetando el orden de campos.
func (s *DocStore) AppendToArrayField(ctx context.Context, path, field string, elem map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	if err := checkFields(map[string]any{field: nil}); err != nil {
		return err
	}

	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: fieldID, Value: path}},
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: field, Value: ordered(elem)}}}},
	)
	if err != nil {
		if isNotArray(err) {
			return fmt.Errorf("%w: %s", docstore.ErrNotArray, field)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (s *DocStore) SetDocument(ctx context.Context, path string, data map[string]any) error {
	if err := docstore.ValidateDocumentPath(path); err != nil {
		return err
	}
	if err := checkFields(data); err != nil {
		return err
	}

	doc := bson.D{
		{Key: fieldID, Value: path},
		{Key: fieldCollection, Value: docstore.Parent(path)},
	}
	for _, k := range sortedKeys(data) {
		doc = append(doc, bson.E{Key: k, Value: ordered(data[k])})
	}

	_, err := s.col.ReplaceOne(ctx, bson.D{{Key: fieldID, Value: path}}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *DocStore) ListDocuments(ctx context.Context, collectionPath string) ([]docstore.Document, error) {
	if err := docstore.ValidateCollectionPath(collectionPath); err != nil {
		return nil, err
	}

	cur, err := s.col.Find(ctx,
		bson.D{{Key: fieldCollection, Value: collectionPath}},
		options.Find().SetSort(bson.D{{Key: fieldID, Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]docstore.Document, 0)
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		p, _ := raw[fieldID].(string)
		out = append(out, toDocument(p, raw))
	}
	return out, cur.Err()
}

func checkFields(m map[string]any) error {
	for k := range m {
		if k == "" || k == fieldID || k == fieldCollection || k[0] == '$' {
			return fmt.Errorf("%w: %q", ErrReservedField, k)
		}
	}
	return nil
}

func toDocument(path string, raw bson.M) docstore.Document {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == fieldID || k == fieldCollection {
			continue
		}
		data[k] = plain(v)
	}
	return docstore.Document{Path: path, Data: data}
}

// plain convierte tipos bson (M, D, A) a map[string]any / []any.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = plain(vv)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, 0, len(t))
		for _, vv := range t {
			out = append(out, plain(vv))
		}
		return out
	case []any:
		out := make([]any, 0, len(t))
		for _, vv := range t {
			out = append(out, plain(vv))
		}
		return out
	default:
		return v
	}
}

// ordered convierte maps a bson.D con claves ordenadas (recursivo).
func ordered(v any) any {
	switch t := v.(type) {
	case map[string]any:
		d := make(bson.D, 0, len(t))
		for _, k := range sortedKeys(t) {
			d = append(d, bson.E{Key: k, Value: ordered(t[k])})
		}
		return d
	case []map[string]any:
		out := make(bson.A, 0, len(t))
		for _, m := range t {
			out = append(out, ordered(m))
		}
		return out
	case []any:
		out := make(bson.A, 0, len(t))
		for _, it := range t {
			out = append(out, ordered(it))
		}
		return out
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// $addToSet sobre un campo no-array falla en el server con BadValue (code 2).
func isNotArray(err error) bool {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return false
	}
	for _, e := range we.WriteErrors {
		if e.Code == codeBadValue {
			return true
		}
	}
	return false
}
