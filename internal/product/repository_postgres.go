package product

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	productColumns = `id, name, slug, description, price, compare_at_price, category_id, images, stock, featured, active, created_at, updated_at`

	getProductByIDQuery = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	insertProductQuery  = `
		INSERT INTO products (name, slug, description, price, compare_at_price, category_id, images, stock, featured, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id
	`
	updateProductQuery = `
		UPDATE products
		SET name = $2,
			slug = $3,
			description = $4,
			price = $5,
			compare_at_price = $6,
			category_id = $7,
			images = $8,
			stock = $9,
			featured = $10,
			active = $11,
			updated_at = $12
		WHERE id = $1
	`
	deleteProductQuery = `DELETE FROM products WHERE id = $1`

	listVariantsQuery = `
		SELECT id, product_id, name, sku, price, stock
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY id
	`
	insertVariantQuery  = `INSERT INTO product_variants (product_id, name, sku, price, stock) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	updateVariantQuery  = `UPDATE product_variants SET name = $3, sku = $4, price = $5, stock = $6 WHERE id = $1 AND product_id = $2`
	pruneVariantsQuery  = `DELETE FROM product_variants WHERE product_id = $1 AND NOT (id = ANY($2))`
	adjustProductStock  = `UPDATE products SET stock = stock + $2 WHERE id = $1 AND stock + $2 >= 0 RETURNING stock`
	adjustVariantStock  = `UPDATE product_variants SET stock = stock + $3 WHERE product_id = $1 AND id = $2 AND stock + $3 >= 0 RETURNING stock`
	productStockQuery   = `SELECT stock FROM products WHERE id = $1`
	variantStockQuery   = `SELECT stock FROM product_variants WHERE product_id = $1 AND id = $2`
	lowStockProducts    = `
		SELECT p.id, NULL::int, p.name, '', '', p.stock
		FROM products p
		WHERE p.stock <= $1 AND NOT EXISTS (SELECT 1 FROM product_variants v WHERE v.product_id = p.id)
		UNION ALL
		SELECT p.id, v.id, p.name, v.name, v.sku, v.stock
		FROM product_variants v JOIN products p ON p.id = v.product_id
		WHERE v.stock <= $1
		ORDER BY 6, 1
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(s rowScanner) (Product, error) {
	var (
		p       Product
		compare decimal.NullDecimal
		catID   sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &compare, &catID,
		pq.Array(&p.Images), &p.Stock, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	if compare.Valid {
		p.CompareAtPrice = &compare.Decimal
	}
	if catID.Valid {
		id := int(catID.Int64)
		p.CategoryID = &id
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Variants = []Variant{}
	return p, nil
}

func (r *PostgresRepository) List(f Filter) ([]Product, error) {
	var (
		conds []string
		args  []any
	)
	if f.ActiveOnly {
		conds = append(conds, "active")
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		conds = append(conds, fmt.Sprintf("featured = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	q := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachVariants(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRepository) attachVariants(products []Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]int64, len(products))
	index := make(map[int]int, len(products))
	for i, p := range products {
		ids[i] = int64(p.ID)
		index[p.ID] = i
	}

	rows, err := r.db.Query(listVariantsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			v     Variant
			price decimal.NullDecimal
		)
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &price, &v.Stock); err != nil {
			return err
		}
		if price.Valid {
			v.Price = &price.Decimal
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) GetByID(id int) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(getProductByIDQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, err
	}
	one := []Product{p}
	if err := r.attachVariants(one); err != nil {
		return Product{}, err
	}
	return one[0], nil
}

func (r *PostgresRepository) Create(p Product) (Product, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback()

	err = tx.QueryRow(insertProductQuery,
		p.Name, p.Slug, p.Description, p.Price, nullDecimal(p.CompareAtPrice), nullInt(p.CategoryID),
		pq.Array(p.Images), p.Stock, p.Featured, p.Active, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return Product{}, mapErr(err)
	}
	if err := saveVariants(tx, &p); err != nil {
		return Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *PostgresRepository) Update(p Product) (Product, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return Product{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(updateProductQuery,
		p.ID, p.Name, p.Slug, p.Description, p.Price, nullDecimal(p.CompareAtPrice), nullInt(p.CategoryID),
		pq.Array(p.Images), p.Stock, p.Featured, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return Product{}, mapErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Product{}, ErrNotFound
	}
	if err := saveVariants(tx, &p); err != nil {
		return Product{}, err
	}
	if err := tx.Commit(); err != nil {
		return Product{}, err
	}
	return r.GetByID(p.ID)
}

// saveVariants upserts p.Variants and removes variants no longer listed,
// keeping existing variant ids stable for carts that reference them.
func saveVariants(tx *sql.Tx, p *Product) error {
	keep := make([]int64, 0, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		v.ProductID = p.ID
		if v.ID == 0 {
			if err := tx.QueryRow(insertVariantQuery, p.ID, v.Name, v.SKU, nullDecimal(v.Price), v.Stock).Scan(&v.ID); err != nil {
				return err
			}
		} else {
			res, err := tx.Exec(updateVariantQuery, v.ID, p.ID, v.Name, v.SKU, nullDecimal(v.Price), v.Stock)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrVariantNotFound
			}
		}
		keep = append(keep, int64(v.ID))
	}
	_, err := tx.Exec(pruneVariantsQuery, p.ID, pq.Array(keep))
	return err
}

func (r *PostgresRepository) Delete(id int) error {
	res, err := r.db.Exec(deleteProductQuery, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) AdjustStock(productID int, variantID *int, delta int) (int, error) {
	var (
		stock int
		err   error
	)
	if variantID == nil {
		err = r.db.QueryRow(adjustProductStock, productID, delta).Scan(&stock)
	} else {
		err = r.db.QueryRow(adjustVariantStock, productID, *variantID, delta).Scan(&stock)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return stock, err
	}

	// Either the row is missing or the guard rejected the change.
	if variantID == nil {
		err = r.db.QueryRow(productStockQuery, productID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
	} else {
		err = r.db.QueryRow(variantStockQuery, productID, *variantID).Scan(&stock)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrVariantNotFound
		}
	}
	if err != nil {
		return 0, err
	}
	return stock, ErrInsufficientStock
}

func (r *PostgresRepository) LowStock(threshold int) ([]StockLevel, error) {
	rows, err := r.db.Query(lowStockProducts, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StockLevel, 0)
	for rows.Next() {
		var (
			s         StockLevel
			variantID sql.NullInt64
		)
		if err := rows.Scan(&s.ProductID, &variantID, &s.Name, &s.VariantName, &s.SKU, &s.Stock); err != nil {
			return nil, err
		}
		if variantID.Valid {
			id := int(variantID.Int64)
			s.VariantID = &id
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlugExists
	}
	return err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}
