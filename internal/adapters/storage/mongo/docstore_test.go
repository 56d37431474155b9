package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"shelter-partner/internal/ports/docstore"
)

const animalPath = "Societies/soc-1/dogs/a-1"

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestDocStore_Mock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update fields on existing document", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := s.UpdateFields(context.Background(), animalPath, map[string]any{"inCage": false, "startTime": 12.5})
		require.NoError(mt, err)
	})

	mt.Run("update fields on missing document", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.UpdateFields(context.Background(), animalPath, map[string]any{"inCage": true})
		assert.ErrorIs(mt, err, docstore.ErrNotFound)
	})

	mt.Run("conditional update precondition failed", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 0},
				bson.E{Key: "nModified", Value: 0},
			),
			mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, bson.D{
				{Key: "_id", Value: 1},
				{Key: "n", Value: int32(1)},
			}),
		)

		err := s.UpdateFieldsIf(context.Background(), animalPath,
			map[string]any{"inCage": false},
			map[string]any{"inCage": true},
		)
		assert.ErrorIs(mt, err, docstore.ErrPreconditionFailed)
	})

	mt.Run("get document strips internal fields", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: animalPath},
			{Key: "_collection", Value: "Societies/soc-1/dogs"},
			{Key: "inCage", Value: false},
			{Key: "startTime", Value: 1700000000.0},
			{Key: "logs", Value: bson.A{
				bson.D{{Key: "endTime", Value: 2.0}, {Key: "id", Value: "v1"}, {Key: "startTime", Value: 1.0}},
			}},
		}))

		doc, err := s.GetDocument(context.Background(), animalPath)
		require.NoError(mt, err)
		assert.Equal(mt, animalPath, doc.Path)
		_, hasID := doc.Data["_id"]
		assert.False(mt, hasID)
		_, hasCol := doc.Data["_collection"]
		assert.False(mt, hasCol)

		inCage, ok := doc.Bool("inCage")
		assert.True(mt, ok)
		assert.False(mt, inCage)

		st, ok := doc.Float("startTime")
		assert.True(mt, ok)
		assert.Equal(mt, 1700000000.0, st)

		logs := doc.Maps("logs")
		require.Len(mt, logs, 1)
		assert.Equal(mt, "v1", logs[0]["id"])
	})

	mt.Run("get missing document", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))

		_, err := s.GetDocument(context.Background(), animalPath)
		assert.ErrorIs(mt, err, docstore.ErrNotFound)
	})

	mt.Run("append to missing document", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := s.AppendToArrayField(context.Background(), animalPath, "logs", map[string]any{"id": "v1"})
		assert.ErrorIs(mt, err, docstore.ErrNotFound)
	})

	mt.Run("write error is surfaced", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    13,
			Message: "unauthorized",
		}))

		err := s.UpdateFields(context.Background(), animalPath, map[string]any{"inCage": true})
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, docstore.ErrNotFound)
	})

	mt.Run("append to non-array field", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    2,
			Message: "Cannot apply $addToSet to non-array field",
		}))

		err := s.AppendToArrayField(context.Background(), animalPath, "logs", map[string]any{"id": "v1"})
		assert.ErrorIs(mt, err, docstore.ErrNotArray)
	})

	mt.Run("reserved fields rejected", func(mt *mtest.T) {
		s := NewDocStore(mt.Coll)
		err := s.UpdateFields(context.Background(), animalPath, map[string]any{"_id": "x"})
		assert.ErrorIs(mt, err, ErrReservedField)
	})
}

func TestOrdered_SortsKeysRecursively(t *testing.T) {
	got := ordered(map[string]any{
		"startTime": 1.0,
		"id":        "v1",
		"meta":      map[string]any{"b": 2, "a": 1},
	})

	d, ok := got.(bson.D)
	require.True(t, ok)
	require.Len(t, d, 3)
	assert.Equal(t, "id", d[0].Key)
	assert.Equal(t, "meta", d[1].Key)
	assert.Equal(t, "startTime", d[2].Key)

	inner, ok := d[1].Value.(bson.D)
	require.True(t, ok)
	assert.Equal(t, "a", inner[0].Key)
	assert.Equal(t, "b", inner[1].Key)
}
