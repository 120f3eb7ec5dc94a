package coupon

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	couponColumns = `id, code, discount_type, discount_value, is_influencer, influencer_instagram, min_order_total,
		max_uses, used_count, valid_from, valid_until, active, created_at, updated_at`

	listCouponsQuery    = `SELECT ` + couponColumns + ` FROM coupons ORDER BY id DESC`
	getCouponByIDQuery  = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`
	getCouponByCodeSQL  = `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`
	insertCouponQuery   = `
		INSERT INTO coupons (code, discount_type, discount_value, is_influencer, influencer_instagram, min_order_total,
			max_uses, valid_from, valid_until, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING ` + couponColumns
	updateCouponQuery = `
		UPDATE coupons
		SET code = $2, discount_type = $3, discount_value = $4, is_influencer = $5, influencer_instagram = $6,
			min_order_total = $7, max_uses = $8, valid_from = $9, valid_until = $10, active = $11, updated_at = $12
		WHERE id = $1
		RETURNING ` + couponColumns
	deleteCouponQuery     = `DELETE FROM coupons WHERE id = $1`
	bumpUsedCountQuery    = `UPDATE coupons SET used_count = used_count + 1, updated_at = now() WHERE id = $1`
	insertRedemptionQuery = `
		INSERT INTO coupon_redemptions (coupon_id, order_number, user_id, order_total, discount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	influencerReportQuery = `
		SELECT c.id, c.code, COALESCE(c.influencer_instagram, ''), COUNT(r.id),
			COALESCE(SUM(r.order_total), 0), COALESCE(SUM(r.discount), 0)
		FROM coupons c
		LEFT JOIN coupon_redemptions r ON r.coupon_id = c.id
		WHERE c.is_influencer
		GROUP BY c.id
		ORDER BY 5 DESC, c.id
	`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(s rowScanner) (Coupon, error) {
	var (
		c         Coupon
		instagram sql.NullString
		from      sql.NullTime
		until     sql.NullTime
	)
	err := s.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.IsInfluencerCode, &instagram, &c.MinOrderTotal,
		&c.MaxUses, &c.UsedCount, &from, &until, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Coupon{}, ErrNotFound
	}
	if err != nil {
		return Coupon{}, mapErr(err)
	}
	if instagram.Valid {
		c.InfluencerInstagram = &instagram.String
	}
	if from.Valid {
		c.ValidFrom = &from.Time
	}
	if until.Valid {
		c.ValidUntil = &until.Time
	}
	return c, nil
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrCodeExists
	}
	return err
}

func (r *PostgresRepository) List(ctx context.Context) ([]Coupon, error) {
	rows, err := r.db.QueryContext(ctx, listCouponsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx, getCouponByIDQuery, id))
}

func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx, getCouponByCodeSQL, code))
}

func (r *PostgresRepository) Create(ctx context.Context, c Coupon) (Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx, insertCouponQuery,
		c.Code, string(c.DiscountType), c.DiscountValue, c.IsInfluencerCode, c.InfluencerInstagram, c.MinOrderTotal,
		c.MaxUses, c.ValidFrom, c.ValidUntil, c.Active, c.CreatedAt))
}

func (r *PostgresRepository) Update(ctx context.Context, c Coupon) (Coupon, error) {
	return scanCoupon(r.db.QueryRowContext(ctx, updateCouponQuery,
		c.ID, c.Code, string(c.DiscountType), c.DiscountValue, c.IsInfluencerCode, c.InfluencerInstagram, c.MinOrderTotal,
		c.MaxUses, c.ValidFrom, c.ValidUntil, c.Active, c.UpdatedAt))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteCouponQuery, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) RecordRedemption(ctx context.Context, red Redemption) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, bumpUsedCountQuery, red.CouponID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, insertRedemptionQuery,
		red.CouponID, red.OrderNumber, red.UserID, red.OrderTotal, red.Discount, red.CreatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresRepository) InfluencerReport(ctx context.Context) ([]InfluencerStats, error) {
	rows, err := r.db.QueryContext(ctx, influencerReportQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InfluencerStats, 0)
	for rows.Next() {
		var (
			st       InfluencerStats
			revenue  decimal.Decimal
			discount decimal.Decimal
		)
		if err := rows.Scan(&st.CouponID, &st.Code, &st.Instagram, &st.Uses, &revenue, &discount); err != nil {
			return nil, err
		}
		st.Revenue, st.DiscountGiven = revenue, discount
		out = append(out, st)
	}
	return out, rows.Err()
}
