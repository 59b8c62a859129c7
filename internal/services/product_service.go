package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps the row offset far from integer overflow.
	MaxPage = 1_000_000
)

// Routing keys of the catalog events.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher sends catalog events to the message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// ProductEvent is the payload published after every catalog write.
type ProductEvent struct {
	Type       string          `json:"type"`
	ProductID  string          `json:"productId"`
	ActorID    string          `json:"actorId"`
	Product    *models.Product `json:"product,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// ProductQuery is a listing request as received from a caller.
type ProductQuery struct {
	Category models.Category
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
	Limit    int
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products      []models.Product `json:"products"`
	TotalPages    int              `json:"totalPages"`
	CurrentPage   int              `json:"currentPage"`
	TotalProducts int64            `json:"totalProducts"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
}

// NewProductService creates a new ProductService. publisher may be nil, in
// which case no events are sent.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
	}
}

// ListProducts returns one page of products, newest first.
func (s *ProductService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Category != "" && !q.Category.Valid() {
		return nil, models.NewValidationError("category", "category must be one of Electronics, Clothing, Food, Books, Other")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, models.NewValidationError("minPrice", "minPrice must not exceed maxPrice")
	}

	if q.Page > MaxPage {
		return nil, models.NewValidationError("page", fmt.Sprintf("page must be at most %d", MaxPage))
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	products, total, err := s.repo.List(ctx, repositories.ProductFilter{
		Category: q.Category,
		MinPrice: q.MinPrice,
		MaxPrice: q.MaxPrice,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}

	return &ProductPage{
		Products:      products,
		TotalPages:    int((total + int64(limit) - 1) / int64(limit)),
		CurrentPage:   page,
		TotalProducts: total,
	}, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct stores a new product owned by creatorID.
func (s *ProductService) CreateProduct(ctx context.Context, creatorID string, in models.ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Stock:       in.Stock,
		CreatedBy:   creatorID,
	}
	if in.Price != nil {
		product.Price = in.Price.Round(2)
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publish(EventProductCreated, creatorID, product.ID, product)
	return product, nil
}

// UpdateProduct applies patch to the product and returns the stored result.
func (s *ProductService) UpdateProduct(ctx context.Context, actorID, id string, patch models.ProductPatch) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(product)
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	updated, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(EventProductUpdated, actorID, updated.ID, updated)
	return updated, nil
}

// DeleteProduct permanently removes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, actorID, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	s.publish(EventProductDeleted, actorID, id, nil)
	return nil
}

// publish is best effort: a broker failure never fails the request.
func (s *ProductService) publish(eventType, actorID, productID string, product *models.Product) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(ProductEvent{
		Type:       eventType,
		ProductID:  productID,
		ActorID:    actorID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		logger.Error("failed to marshal product event", "type", eventType, "product_id", productID, "err", err)
		return
	}

	if err := s.publisher.Publish(eventType, body); err != nil {
		logger.Warn("failed to publish product event", "type", eventType, "product_id", productID, "err", err)
		return
	}
	logger.Debug("published product event", "type", eventType, "product_id", productID)
}
