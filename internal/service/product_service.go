package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fakturan-dev/catalog-service/internal/domain"
	"github.com/fakturan-dev/catalog-service/internal/events"
	"github.com/fakturan-dev/catalog-service/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrValidation      = errors.New("validation error")

	ErrMissingRequired = fmt.Errorf("%w: article number and product name are required", ErrValidation)
	ErrEmptyUpdate     = fmt.Errorf("%w: no recognized fields in payload", ErrValidation)
	ErrNegativeValue   = fmt.Errorf("%w: price, inPrice and inStock must not be negative", ErrValidation)
	ErrNameTooLong     = fmt.Errorf("%w: product name must not exceed 255 characters", ErrValidation)
)

const (
	DefaultLimit = 50
	MaxLimit     = 500

	maxNameLength = 255
)

// ListQuery carries the parsed list parameters. Page is 1-based and takes
// precedence over Offset when both are set; zero values mean "not given".
type ListQuery struct {
	ArticleNo string
	Name      string
	Search    string
	Page      int64
	Offset    int64
	Limit     int64
}

type ProductService struct {
	store    repository.Store
	producer *events.Producer
	logger   *zap.Logger
}

// NewProductService wires the service. producer may be nil, in which case
// no events are emitted.
func NewProductService(store repository.Store, producer *events.Producer, logger *zap.Logger) *ProductService {
	return &ProductService{
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

func (s *ProductService) List(ctx context.Context, q ListQuery) (*domain.ProductList, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset := q.Offset
	page := q.Page
	if page > 0 {
		offset = (page - 1) * limit
	} else {
		page = offset/limit + 1
	}

	products, total, err := s.store.List(ctx, repository.ListFilter{
		ArticleNo: q.ArticleNo,
		Name:      q.Name,
		Search:    q.Search,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}

	return &domain.ProductList{
		Products: products,
		Pagination: domain.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	articleNo := strings.TrimSpace(req.ArticleNo)
	name := strings.TrimSpace(req.Name)
	if articleNo == "" || name == "" {
		return nil, ErrMissingRequired
	}
	if len(name) > maxNameLength {
		return nil, ErrNameTooLong
	}

	p := &domain.Product{
		ArticleNo:   articleNo,
		Name:        name,
		Unit:        domain.DefaultUnit,
		Description: req.Description,
	}
	if req.InPrice != nil {
		p.InPrice = *req.InPrice
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Unit != "" {
		p.Unit = req.Unit
	}
	if req.InStock != nil {
		p.InStock = *req.InStock
	}
	if p.InPrice.IsNegative() || p.Price.IsNegative() || p.InStock < 0 {
		return nil, ErrNegativeValue
	}

	if err := s.store.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create product",
			zap.String("article_no", p.ArticleNo),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.Int64("id", p.ID),
		zap.String("article_no", p.ArticleNo))
	s.publish(events.TypeProductCreated, p.ID, p)

	return p, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, cs domain.ChangeSet) (*domain.Product, error) {
	if cs.Empty() {
		return nil, ErrEmptyUpdate
	}
	if err := validateChangeSet(cs); err != nil {
		return nil, err
	}

	p, err := s.store.Update(ctx, id, cs)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to update product",
			zap.Int64("id", id),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product updated", zap.Int64("id", id))
	s.publish(events.TypeProductUpdated, id, p)

	return p, nil
}

func validateChangeSet(cs domain.ChangeSet) error {
	if cs.ArticleNo != nil && strings.TrimSpace(*cs.ArticleNo) == "" {
		return ErrMissingRequired
	}
	if cs.Name != nil {
		name := strings.TrimSpace(*cs.Name)
		if name == "" {
			return ErrMissingRequired
		}
		if len(name) > maxNameLength {
			return ErrNameTooLong
		}
	}
	if cs.InPrice != nil && cs.InPrice.IsNegative() {
		return ErrNegativeValue
	}
	if cs.Price != nil && cs.Price.IsNegative() {
		return ErrNegativeValue
	}
	if cs.InStock != nil && *cs.InStock < 0 {
		return ErrNegativeValue
	}
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		s.logger.Error("Failed to delete product",
			zap.Int64("id", id),
			zap.Error(err))
		return err
	}

	s.logger.Info("Product deleted", zap.Int64("id", id))
	s.publish(events.TypeProductDeleted, id, nil)

	return nil
}

func (s *ProductService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish emits a catalog event best effort; failures are logged and never
// surface to the caller.
func (s *ProductService) publish(eventType string, id int64, p *domain.Product) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(events.NewProductEvent(eventType, id, p)); err != nil {
		s.logger.Error("Failed to publish catalog event",
			zap.String("type", eventType),
			zap.Int64("product_id", id),
			zap.Error(err))
	}
}
