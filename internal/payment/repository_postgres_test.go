package payment

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresComplete_OnlyFromPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(completeSessionQuery)).WithArgs("oid1", "ORD-1").WillReturnResult(sqlmock.NewResult(0, 1))
	won, err := repo.Complete(ctx, "oid1", "ORD-1")
	require.NoError(t, err)
	assert.True(t, won)

	mock.ExpectExec(regexp.QuoteMeta(completeSessionQuery)).WithArgs("oid1", "ORD-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("oid1").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	won, err = repo.Complete(ctx, "oid1", "ORD-1")
	require.NoError(t, err)
	assert.False(t, won)

	mock.ExpectExec(regexp.QuoteMeta(failSessionQuery)).WithArgs("ghost", "x").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("ghost").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	_, err = repo.Fail(ctx, "ghost", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet_DecodesSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	cols := []string{"merchant_oid", "user_id", "token", "status", "amount", "snapshot", "order_number", "failure_reason", "created_at", "updated_at"}
	mock.ExpectQuery("FROM payment_sessions").WithArgs("oid1").WillReturnRows(sqlmock.NewRows(cols).AddRow(
		"oid1", 7, "tok", "completed", "2700.00",
		[]byte(`{"customer":{"name":"Ayse"},"items":[],"subtotal":"3000","discount":"300","shipping":"0","total":"2700","couponCode":"SAVE10"}`),
		"ORD-20260101-AAAAAA", nil, now, now))

	s, err := repo.Get(context.Background(), "oid1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, "Ayse", s.Snapshot.Customer.Name)
	assert.Equal(t, "SAVE10", *s.Snapshot.CouponCode)
	assert.Nil(t, s.FailureReason)
	assert.Equal(t, "ORD-20260101-AAAAAA", *s.OrderNumber)
}
