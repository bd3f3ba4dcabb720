package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"storefront/internal/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

const productColumns = `id, name_ar, name_en, description_ar, description_en, category,
	price, image, in_stock, variants, created_at, updated_at`

type productRow struct {
	ID            string          `db:"id"`
	NameAR        string          `db:"name_ar"`
	NameEN        string          `db:"name_en"`
	DescriptionAR string          `db:"description_ar"`
	DescriptionEN string          `db:"description_en"`
	Category      string          `db:"category"`
	Price         decimal.Decimal `db:"price"`
	Image         string          `db:"image"`
	InStock       bool            `db:"in_stock"`
	Variants      []byte          `db:"variants"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *productRow) toModel() (models.Product, error) {
	p := models.Product{
		ID:          r.ID,
		Name:        models.LocalizedText{AR: r.NameAR, EN: r.NameEN},
		Description: models.LocalizedText{AR: r.DescriptionAR, EN: r.DescriptionEN},
		Category:    models.Category(r.Category),
		Price:       r.Price,
		Image:       r.Image,
		InStock:     r.InStock,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.Variants) > 0 {
		if err := json.Unmarshal(r.Variants, &p.Variants); err != nil {
			return models.Product{}, fmt.Errorf("decode variants of %s: %w", r.ID, err)
		}
	}
	if len(p.Variants) == 0 {
		p.Variants = nil
	}
	return p, nil
}

func encodeVariants(variants []models.Variant) ([]byte, error) {
	if variants == nil {
		variants = []models.Variant{}
	}
	return json.Marshal(variants)
}

// productFilter renders the WHERE clause and ORDER BY of q. Placeholders
// are numbered from 1 in the order of args.
func productFilter(q models.CatalogQuery) (where string, args []interface{}, orderBy string) {
	var conds []string
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Category != "" && q.Category != models.CategoryAll {
		conds = append(conds, "category = "+arg(string(q.Category)))
	}
	if q.InStock != nil {
		conds = append(conds, "in_stock = "+arg(*q.InStock))
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		p := arg("%" + escapeLike(strings.ToLower(search)) + "%")
		conds = append(conds, fmt.Sprintf(`(LOWER(name_ar) LIKE %s ESCAPE '\' OR LOWER(name_en) LIKE %s ESCAPE '\')`, p, p))
	}
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	const recency = "created_at DESC, id DESC"
	switch q.Sort {
	case models.SortPriceAsc:
		orderBy = " ORDER BY price ASC, " + recency
	case models.SortPriceDesc:
		orderBy = " ORDER BY price DESC, " + recency
	case models.SortName:
		orderBy = " ORDER BY LOWER(" + nameExpr(q.Lang) + ") ASC, " + recency
	default:
		orderBy = " ORDER BY " + recency
	}
	return where, args, orderBy
}

// nameExpr mirrors LocalizedText.Get: the requested language, English when
// it is empty.
func nameExpr(lang string) string {
	if lang == models.LangEN {
		return "name_en"
	}
	return "COALESCE(NULLIF(name_ar, ''), name_en)"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// QueryProducts runs a catalog query: filter, stable sort, then page.
func (s *Store) QueryProducts(ctx context.Context, q models.CatalogQuery) (*models.CatalogResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	where, args, orderBy := productFilter(q)

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM products"+where, args...); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	page := fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	var rows []productRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT "+productColumns+" FROM products"+where+orderBy+page,
		append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	items := make([]models.Product, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}

	return &models.CatalogResult{
		Items:      items,
		Pagination: models.NewPagination(total, q.Page, q.Limit),
	}, nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("product %s", id)
	}
	if err != nil {
		return nil, err
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts p, assigning an ID when it has none.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	variants, err := encodeVariants(p.Variants)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (id, name_ar, name_en, description_ar, description_en,
			category, price, image, in_stock, variants)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.ID, p.Name.AR, p.Name.EN, p.Description.AR, p.Description.EN,
		string(p.Category), p.Price, p.Image, p.InStock, variants,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct replaces every field of p except its creation time.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	variants, err := encodeVariants(p.Variants)
	if err != nil {
		return err
	}

	query := `
		UPDATE products SET name_ar = $2, name_en = $3, description_ar = $4,
			description_en = $5, category = $6, price = $7, image = $8,
			in_stock = $9, variants = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`

	err = s.db.QueryRowxContext(ctx, query,
		p.ID, p.Name.AR, p.Name.EN, p.Description.AR, p.Description.EN,
		string(p.Category), p.Price, p.Image, p.InStock, variants,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NotFoundf("product %s", p.ID)
	}
	return err
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.NotFoundf("product %s", id)
	}
	return nil
}

// ToggleStock flips the product-level stock flag.
func (s *Store) ToggleStock(ctx context.Context, id string) (*models.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row,
		"UPDATE products SET in_stock = NOT in_stock, updated_at = NOW() WHERE id = $1 RETURNING "+productColumns, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.NotFoundf("product %s", id)
	}
	if err != nil {
		return nil, err
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}
