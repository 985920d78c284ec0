package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	bookingserrors "quickcourt/internal/bookings/errors"
	"quickcourt/pkg/config"
	"quickcourt/pkg/model"
)

const (
	testVenueID = "65f000000000000000000001"
	testCourtID = "65f0000000000000000000c1"
	testUserID  = "65f0000000000000000000a1"
)

func testConfig() *config.Config {
	return &config.Config{
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func newTestBookingRepository(mt *mtest.T) *mongoBookingRepository {
	return &mongoBookingRepository{
		cfg:        testConfig(),
		db:         mt.DB,
		collection: mt.Coll,
	}
}

func bookingDoc(id primitive.ObjectID, status string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user", Value: testUserID},
		{Key: "venue", Value: testVenueID},
		{Key: "court", Value: bson.D{{Key: "court_id", Value: testCourtID}, {Key: "name", Value: "Court 1"}}},
		{Key: "date", Value: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Key: "time_slot", Value: bson.D{{Key: "start", Value: "10:00"}, {Key: "end", Value: "11:00"}}},
		{Key: "duration", Value: 1},
		{Key: "total_price", Value: 500.0},
		{Key: "status", Value: status},
		{Key: "payment_status", Value: model.PaymentStatusCompleted},
	}
}

func TestBookingRepository_FindOverlapping(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("filters confirmed bookings intersecting the slot", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		existing := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "quickcourt.Bookings", mtest.FirstBatch,
			bookingDoc(existing, model.BookingStatusConfirmed)))

		// Late evening in a zone ahead of UTC still names the same calendar day.
		date := time.Date(2025, 3, 2, 22, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
		slot := model.TimeSlot{Start: "10:30", End: "12:00"}

		bookings, err := repo.FindOverlapping(context.Background(), testVenueID, testCourtID, date, slot)

		require.NoError(mt, err)
		require.Len(mt, bookings, 1)
		assert.Equal(mt, existing.Hex(), bookings[0].ID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)

		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(mt, testVenueID, filter.Lookup("venue").StringValue())
		assert.Equal(mt, testCourtID, filter.Lookup("court.court_id").StringValue())
		assert.Equal(mt, model.BookingStatusConfirmed, filter.Lookup("status").StringValue())
		assert.Equal(mt, "12:00", filter.Lookup("time_slot.start", "$lt").StringValue())
		assert.Equal(mt, "10:30", filter.Lookup("time_slot.end", "$gt").StringValue())

		wantDay := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
		assert.True(mt, wantDay.Equal(filter.Lookup("date").Time()), "date must be exact UTC midnight, got %s", filter.Lookup("date").Time().UTC())
	})

	mt.Run("no overlap", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "quickcourt.Bookings", mtest.FirstBatch))

		bookings, err := repo.FindOverlapping(context.Background(), testVenueID, testCourtID,
			time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), model.TimeSlot{Start: "11:00", End: "12:00"})

		require.NoError(mt, err)
		assert.Empty(mt, bookings)
	})
}

func TestBookingRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("assigns id", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		booking := &model.Booking{UserID: testUserID, VenueID: testVenueID, Status: model.BookingStatusConfirmed}
		require.NoError(mt, repo.Create(context.Background(), booking))

		assert.True(mt, primitive.IsValidObjectID(booking.ID))
		assert.False(mt, booking.CreatedAt.IsZero())
	})

	mt.Run("taken slot maps to duplicate slot", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: quickcourt.Bookings index: uniq_confirmed_slot",
		}))

		err := repo.Create(context.Background(), &model.Booking{UserID: testUserID, VenueID: testVenueID})

		assert.ErrorIs(mt, err, bookingserrors.ErrDuplicateSlot)
	})
}

func TestBookingRepository_Transition(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("complete guards on confirmed status", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bookingDoc(id, model.BookingStatusCompleted)},
		))

		booking, err := repo.Complete(context.Background(), id.Hex())

		require.NoError(mt, err)
		assert.Equal(mt, model.BookingStatusCompleted, booking.Status)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		assert.Equal(mt, id, evt.Command.Lookup("query", "_id").ObjectID())
		assert.Equal(mt, model.BookingStatusConfirmed, evt.Command.Lookup("query", "status").StringValue())
		assert.Equal(mt, model.BookingStatusCompleted, evt.Command.Lookup("update", "$set", "status").StringValue())
		assert.True(mt, evt.Command.Lookup("new").Boolean())
	})

	mt.Run("cancel sets refund and reason", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: bookingDoc(id, model.BookingStatusCancelled)},
		))

		_, err := repo.Cancel(context.Background(), id.Hex(), "rain")
		require.NoError(mt, err)

		set := startedCommand(mt).Lookup("update", "$set").Document()
		assert.Equal(mt, model.BookingStatusCancelled, set.Lookup("status").StringValue())
		assert.Equal(mt, model.PaymentStatusRefunded, set.Lookup("payment_status").StringValue())
		assert.Equal(mt, "rain", set.Lookup("cancellation_reason").StringValue())
	})

	mt.Run("no confirmed document maps to status changed", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.Cancel(context.Background(), primitive.NewObjectID().Hex(), "")

		assert.ErrorIs(mt, err, bookingserrors.ErrStatusChanged)
	})

	mt.Run("invalid id never reaches the server", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)

		_, err := repo.Complete(context.Background(), "not-an-id")

		assert.ErrorIs(mt, err, bookingserrors.ErrInvalidID)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func startedCommand(mt *mtest.T) bson.Raw {
	mt.Helper()
	started := mt.GetStartedEvent()
	require.NotNil(mt, started)
	return started.Command
}

func TestBookingRepository_FindCompleted(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("matches caller, venue and completed status", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "quickcourt.Bookings", mtest.FirstBatch,
			bookingDoc(id, model.BookingStatusCompleted)))

		booking, err := repo.FindCompleted(context.Background(), id.Hex(), testUserID, testVenueID)

		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), booking.ID)

		filter := startedCommand(mt).Lookup("filter").Document()
		assert.Equal(mt, id, filter.Lookup("_id").ObjectID())
		assert.Equal(mt, testUserID, filter.Lookup("user").StringValue())
		assert.Equal(mt, testVenueID, filter.Lookup("venue").StringValue())
		assert.Equal(mt, model.BookingStatusCompleted, filter.Lookup("status").StringValue())
	})

	mt.Run("no match", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "quickcourt.Bookings", mtest.FirstBatch))

		_, err := repo.FindCompleted(context.Background(), primitive.NewObjectID().Hex(), testUserID, testVenueID)

		assert.ErrorIs(mt, err, bookingserrors.ErrNotFound)
	})
}

func TestBookingRepository_Popularity(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ranks venues and sports", func(mt *mtest.T) {
		repo := newTestBookingRepository(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "quickcourt.Bookings", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: testVenueID}, {Key: "bookings", Value: int32(12)}},
				bson.D{{Key: "_id", Value: "65f000000000000000000002"}, {Key: "bookings", Value: int32(3)}},
			),
			mtest.CreateCursorResponse(0, "quickcourt.Bookings", mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "badminton"}, {Key: "bookings", Value: int32(15)}},
			),
		)

		popularity, err := repo.Popularity(context.Background(), 6, 8)

		require.NoError(mt, err)
		require.Len(mt, popularity.Venues, 2)
		assert.Equal(mt, model.VenueBookingCount{VenueID: testVenueID, Bookings: 12}, popularity.Venues[0])
		assert.Equal(mt, []model.SportBookingCount{{Sport: "badminton", Bookings: 15}}, popularity.Sports)

		pipeline := startedCommand(mt).Lookup("pipeline")
		stages, err := pipeline.Array().Values()
		require.NoError(mt, err)
		require.Len(mt, stages, 4)
		statuses, err := stages[0].Document().Lookup("$match", "status", "$in").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, statuses, 2)
		assert.Equal(mt, "$venue", stages[1].Document().Lookup("$group", "_id").StringValue())
		assert.Equal(mt, int64(6), stages[3].Document().Lookup("$limit").AsInt64())

		sportStages, err := startedCommand(mt).Lookup("pipeline").Array().Values()
		require.NoError(mt, err)
		assert.Equal(mt, "$court.sport_type", sportStages[1].Document().Lookup("$group", "_id").StringValue())
	})
}
