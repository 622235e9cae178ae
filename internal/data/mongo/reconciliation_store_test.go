package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/fellowship-vote-ledger/internal/domain/ledger"
	"github.com/fellowship-vote-ledger/internal/domain/payment"
	"github.com/fellowship-vote-ledger/internal/domain/settings"
	"github.com/fellowship-vote-ledger/internal/domain/shared"
	"github.com/fellowship-vote-ledger/internal/platform/persistence"
)

type stubSettings struct {
	app *settings.App
	err error
}

func (s stubSettings) GetApp(ctx context.Context) (*settings.App, error) {
	return s.app, s.err
}

func newTestStore(mt *mtest.T, price float64) *ReconciliationStore {
	logger := newTestLogger()
	prices := settings.NewPriceProvider(logger, stubSettings{
		app: &settings.App{ID: settings.AppSettingsID, Voting: settings.Voting{PricePerVote: price}},
	}, 100)
	store := NewReconciliationStore(logger, persistence.NewMongoDBWithClient(logger, mt.Client, mt.DB.Name()), prices, 0)
	store.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return store
}

func commitRequest(color string) *ledger.CommitRequest {
	p := &payment.Payment{
		Reference:   "ref_1",
		Amount:      500,
		AmountMinor: 50000,
		Status:      payment.StatusSuccess,
		Currency:    "NGN",
		Family:      "Grace",
		Source:      shared.SourceWebhook,
		IngestedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if color != "" {
		p.Metadata.Color = &color
	}
	return &ledger.CommitRequest{Payment: p, Color: color}
}

func storedPayment(reference string) bson.D {
	return bson.D{
		{Key: "reference", Value: reference},
		{Key: "amount", Value: 500.0},
		{Key: "amount_minor", Value: int64(50000)},
		{Key: "status", Value: "success"},
		{Key: "family", Value: "Grace"},
		{Key: "source", Value: "verification_poll"},
	}
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func TestReconciliationStore_Commit(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("already committed reference is returned without writes", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch, storedPayment("ref_1")),
			mtest.CreateSuccessResponse(), // commitTransaction
		)

		res, err := store.Commit(context.Background(), commitRequest("Red"))
		require.NoError(mt, err)
		assert.True(mt, res.AlreadyExisted)
		assert.Nil(mt, res.Vote)
		assert.Equal(mt, "ref_1", res.Payment.Reference)
		assert.Equal(mt, shared.SourceVerificationPoll, res.Payment.Source)
		assert.NotContains(mt, commandNames(mt), "insert")
		assert.NotContains(mt, commandNames(mt), "delete")
	})

	mt.Run("duplicate key on insert reloads the racing payment", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
			mtest.CreateSuccessResponse(), // abortTransaction
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch, storedPayment("ref_1")),
		)

		res, err := store.Commit(context.Background(), commitRequest("Red"))
		require.NoError(mt, err)
		assert.True(mt, res.AlreadyExisted)
		assert.Nil(mt, res.Vote)
		assert.Equal(mt, shared.SourceVerificationPoll, res.Payment.Source)
		assert.NotContains(mt, commandNames(mt), "update")
	})

	mt.Run("duplicate key with no payment to reload fails", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
			mtest.CreateSuccessResponse(), // abortTransaction
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch),
		)

		res, err := store.Commit(context.Background(), commitRequest(""))
		assert.Nil(mt, res)
		require.Error(mt, err)
		assert.ErrorIs(mt, err, payment.ErrPaymentNotFound{Reference: "ref_1"})
		assert.Contains(mt, err.Error(), "failed to load concurrently committed payment")
	})

	mt.Run("untagged payment writes no vote, tally or outbox", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch),
			mtest.CreateSuccessResponse(),                           // insert payment
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}), // delete pending marker
			mtest.CreateSuccessResponse(),                           // commitTransaction
		)

		res, err := store.Commit(context.Background(), commitRequest(""))
		require.NoError(mt, err)
		assert.False(mt, res.AlreadyExisted)
		assert.Nil(mt, res.Vote)
		assert.Equal(mt, "ref_1", res.Payment.Reference)
		assert.Equal(mt, []string{"find", "insert", "delete", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("tagged payment writes vote, tally and outbox", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch),
			mtest.CreateSuccessResponse(), // insert payment
			mtest.CreateSuccessResponse(), // insert vote
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(),                           // insert outbox message
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}), // delete pending marker
			mtest.CreateSuccessResponse(),                           // commitTransaction
		)

		res, err := store.Commit(context.Background(), commitRequest("Red"))
		require.NoError(mt, err)
		assert.False(mt, res.AlreadyExisted)
		require.NotNil(mt, res.Vote)
		assert.Equal(mt, "Red", res.Vote.Color)
		assert.Equal(mt, "Grace", res.Vote.Family)
		assert.Equal(mt, int64(5), res.Vote.CalculatedVotes)
		assert.Equal(mt, 100.0, res.Vote.PricePerVote)
		assert.Equal(mt,
			[]string{"find", "insert", "insert", "update", "insert", "delete", "commitTransaction"},
			commandNames(mt))
	})

	mt.Run("pending marker delete failure aborts the commit", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt, PaymentsCollectionName), mtest.FirstBatch),
			mtest.CreateSuccessResponse(), // insert payment
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "delete failed"}),
			mtest.CreateSuccessResponse(), // abortTransaction
		)

		res, err := store.Commit(context.Background(), commitRequest(""))
		assert.Nil(mt, res)
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, ledger.ErrDuplicateEntry{}))
		assert.Contains(mt, err.Error(), "failed to delete pending marker")
		assert.NotContains(mt, commandNames(mt), "commitTransaction")
	})

	mt.Run("re-check failure aborts the commit", func(mt *mtest.T) {
		store := newTestStore(mt, 100)
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad query"}),
			mtest.CreateSuccessResponse(), // abortTransaction
		)

		res, err := store.Commit(context.Background(), commitRequest("Red"))
		assert.Nil(mt, res)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "reconciliation commit failed")
		assert.NotContains(mt, commandNames(mt), "insert")
	})
}
