package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/fakturan-dev/catalog-service/internal/domain"
)

const productsSchema = `
CREATE TABLE IF NOT EXISTS products (
    id          BIGSERIAL PRIMARY KEY,
    article_no  VARCHAR(50)   NOT NULL,
    product     VARCHAR(255)  NOT NULL,
    in_price    NUMERIC(10,2) NOT NULL DEFAULT 0,
    price       NUMERIC(10,2) NOT NULL DEFAULT 0,
    unit        VARCHAR(50)   NOT NULL DEFAULT 'pcs',
    in_stock    BIGINT        NOT NULL DEFAULT 0,
    description TEXT,
    created_at  TIMESTAMPTZ   NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ   NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS products_article_no_idx ON products (article_no);
`

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, productsSchema)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func filterConditions(f ListFilter) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if f.ArticleNo != "" {
		conds = append(conds, squirrel.ILike{domain.ColArticleNo: "%" + f.ArticleNo + "%"})
	}
	if f.Name != "" {
		conds = append(conds, squirrel.ILike{domain.ColName: "%" + f.Name + "%"})
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{domain.ColArticleNo: pattern},
			squirrel.ILike{domain.ColName: pattern},
		})
	}
	return conds
}

func (s *PostgresStore) List(ctx context.Context, f ListFilter) ([]domain.Product, int64, error) {
	conds := filterConditions(f)

	countQB := psql.Select("COUNT(*)").From(domain.TableName)
	for _, c := range conds {
		countQB = countQB.Where(c)
	}
	query, args, err := countQB.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building count query: %w", err)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	listQB := psql.Select("*").From(domain.TableName).OrderBy(domain.ColID + " ASC")
	for _, c := range conds {
		listQB = listQB.Where(c)
	}
	if f.Limit > 0 {
		listQB = listQB.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		listQB = listQB.Offset(uint64(f.Offset))
	}
	query, args, err = listQB.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building list query: %w", err)
	}
	products := []domain.Product{}
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *domain.Product) error {
	query, args, err := psql.Insert(domain.TableName).
		Columns(domain.ColArticleNo, domain.ColName, domain.ColInPrice, domain.ColPrice,
			domain.ColUnit, domain.ColInStock, domain.ColDescription).
		Values(p.ArticleNo, p.Name, p.InPrice, p.Price, p.Unit, p.InStock, p.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, cs domain.ChangeSet) (*domain.Product, error) {
	query, args, err := psql.Update(domain.TableName).
		SetMap(cs.Columns()).
		Set(domain.ColUpdatedAt, squirrel.Expr("now()")).
		Where(squirrel.Eq{domain.ColID: id}).
		Suffix("RETURNING *").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	var p domain.Product
	if err := s.db.QueryRowxContext(ctx, query, args...).StructScan(&p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("updating product: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting affected rows: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
