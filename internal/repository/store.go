package repository

import (
	"context"
	"errors"

	"github.com/fakturan-dev/catalog-service/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// ListFilter narrows and pages a product listing. ArticleNo and Name are
// independent case-insensitive substring filters combined with AND; Search
// is a single term matched against both columns with OR. Results are always
// ordered by ascending id.
type ListFilter struct {
	ArticleNo string
	Name      string
	Search    string
	Limit     int64
	Offset    int64
}

// Store is the single storage contract every backend implements. Create
// assigns the id and both timestamps; Update applies only the fields set in
// the change set and refreshes updated_at; List returns one page plus the
// total count over the unpaged filtered set.
type Store interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, int64, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, id int64, cs domain.ChangeSet) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
