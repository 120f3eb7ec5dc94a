package coupon

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var couponCols = []string{"id", "code", "discount_type", "discount_value", "is_influencer", "influencer_instagram", "min_order_total",
	"max_uses", "used_count", "valid_from", "valid_until", "active", "created_at", "updated_at"}

func TestPostgresGetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM coupons WHERE code").WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows(couponCols).
			AddRow(1, "SAVE10", "percentage", "10.00", true, "@ig", "0.00", 0, 2, nil, now, true, now, now))

	c, err := repo.GetByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, Percentage, c.DiscountType)
	require.NotNil(t, c.InfluencerInstagram)
	assert.Nil(t, c.ValidFrom)
	require.NotNil(t, c.ValidUntil)
	assert.Equal(t, 2, c.UsedCount)

	mock.ExpectQuery("FROM coupons WHERE code").WithArgs("NONE").WillReturnRows(sqlmock.NewRows(couponCols))
	_, err = repo.GetByCode(context.Background(), "NONE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRecordRedemption_Transaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(bumpUsedCountQuery)).WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO coupon_redemptions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = repo.RecordRedemption(context.Background(), Redemption{CouponID: 4, OrderNumber: "ORD-20260101-ABC123", UserID: 1,
		OrderTotal: d("100"), Discount: d("10"), CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordRedemption_UnknownCouponRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(bumpUsedCountQuery)).WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.RecordRedemption(context.Background(), Redemption{CouponID: 9})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
