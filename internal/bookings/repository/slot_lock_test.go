package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	bookingserrors "quickcourt/internal/bookings/errors"
)

var lockNow = time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC)

func newTestMongoLocker(mt *mtest.T) *mongoSlotLocker {
	return &mongoSlotLocker{
		cfg:        testConfig(),
		collection: mt.Coll,
		newToken:   func() string { return "token-1" },
		now:        func() time.Time { return lockNow },
	}
}

func duplicateLockResponse() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{
		Index:   0,
		Code:    11000,
		Message: "E11000 duplicate key error collection: quickcourt.Booking_locks index: _id_",
	})
}

func TestMongoSlotLocker_TryAcquire(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("free key", func(mt *mtest.T) {
		locker := newTestMongoLocker(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		token, err := locker.TryAcquire(context.Background(), testSlotKey, 10*time.Second)

		require.NoError(mt, err)
		assert.Equal(mt, "token-1", token)

		doc := startedCommand(mt).Lookup("documents", "0").Document()
		assert.Equal(mt, testSlotKey, doc.Lookup("_id").StringValue())
		assert.Equal(mt, "token-1", doc.Lookup("owner").StringValue())
		assert.True(mt, lockNow.Add(10*time.Second).Equal(doc.Lookup("expires_at").Time()))
	})

	mt.Run("live lock is held", func(mt *mtest.T) {
		locker := newTestMongoLocker(mt)
		mt.AddMockResponses(
			duplicateLockResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		_, err := locker.TryAcquire(context.Background(), testSlotKey, 10*time.Second)

		assert.ErrorIs(mt, err, bookingserrors.ErrLockHeld)

		_ = mt.GetStartedEvent()
		update := startedCommand(mt)
		q := update.Lookup("updates", "0", "q").Document()
		assert.Equal(mt, testSlotKey, q.Lookup("_id").StringValue())
		assert.True(mt, lockNow.Equal(q.Lookup("expires_at", "$lte").Time()))
	})

	mt.Run("expired lock is taken over", func(mt *mtest.T) {
		locker := newTestMongoLocker(mt)
		mt.AddMockResponses(
			duplicateLockResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		token, err := locker.TryAcquire(context.Background(), testSlotKey, 10*time.Second)

		require.NoError(mt, err)
		assert.Equal(mt, "token-1", token)

		_ = mt.GetStartedEvent()
		set := startedCommand(mt).Lookup("updates", "0", "u", "$set").Document()
		assert.Equal(mt, "token-1", set.Lookup("owner").StringValue())
		assert.True(mt, lockNow.Add(10*time.Second).Equal(set.Lookup("expires_at").Time()))
	})

	mt.Run("backend error is not a held lock", func(mt *mtest.T) {
		locker := newTestMongoLocker(mt)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		_, err := locker.TryAcquire(context.Background(), testSlotKey, 10*time.Second)

		require.Error(mt, err)
		assert.NotErrorIs(mt, err, bookingserrors.ErrLockHeld)
	})
}

func TestMongoSlotLocker_Release(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("owner deletes", func(mt *mtest.T) {
		locker := newTestMongoLocker(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, locker.Release(context.Background(), testSlotKey, "token-1"))

		q := startedCommand(mt).Lookup("deletes", "0", "q").Document()
		assert.Equal(mt, testSlotKey, q.Lookup("_id").StringValue())
		assert.Equal(mt, "token-1", q.Lookup("owner").StringValue())
	})

	mt.Run("lost lock", func(mt *mtest.T) {
		locker := newTestMongoLocker(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := locker.Release(context.Background(), testSlotKey, "token-1")

		assert.ErrorIs(mt, err, bookingserrors.ErrLockLost)
	})
}
