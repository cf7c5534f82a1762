package service

import (
	"context"
	"errors"
	"strings"

	"pizzeria-service/internal/models"
	"pizzeria-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductInput struct {
	Kind          models.ProductKind
	Name          string
	Price         decimal.Decimal
	Size          *models.DrinkSize
	IngredientIDs []uuid.UUID
}

type CatalogService interface {
	CreateIngredient(ctx context.Context, name string, allergens []string) (*models.Ingredient, error)
	ListIngredients(ctx context.Context) ([]models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uuid.UUID) error

	CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, f repository.ProductListFilter) ([]models.Product, int64, error)
	UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	products    repository.ProductRepo
	ingredients repository.IngredientRepo
	cache       CacheInvalidator
	log         *zap.Logger
}

// NewCatalogService: cache может быть nil.
func NewCatalogService(products repository.ProductRepo, ingredients repository.IngredientRepo, cache CacheInvalidator, log *zap.Logger) CatalogService {
	return &catalogService{products: products, ingredients: ingredients, cache: cache, log: log}
}

func (s *catalogService) CreateIngredient(ctx context.Context, name string, allergens []string) (*models.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidArgument("ingredient name is required")
	}
	in := &models.Ingredient{Name: name, Allergens: models.NormalizeAllergens(allergens)}
	if err := s.ingredients.Create(ctx, in); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrIngredientExists
		}
		return nil, storageErr("create ingredient", err)
	}
	return in, nil
}

func (s *catalogService) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	list, err := s.ingredients.List(ctx)
	if err != nil {
		return nil, storageErr("list ingredients", err)
	}
	return list, nil
}

func (s *catalogService) DeleteIngredient(ctx context.Context, id uuid.UUID) error {
	ok, err := s.ingredients.Delete(ctx, id)
	if err != nil {
		return storageErr("delete ingredient", err)
	}
	if !ok {
		return ErrIngredientNotFound
	}
	// состав товаров поменялся, точечно не отследить
	if s.cache != nil {
		s.cache.Purge(ctx)
	}
	return nil
}

func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)

	var p *models.Product
	switch in.Kind {
	case models.ProductPizza, models.ProductPasta:
		ingredients, err := s.resolveIngredients(ctx, in.IngredientIDs)
		if err != nil {
			return nil, err
		}
		if in.Kind == models.ProductPizza {
			p = models.NewPizza(name, in.Price, ingredients)
		} else {
			p = models.NewPasta(name, in.Price, ingredients)
		}
		p.Size = in.Size
	case models.ProductDrink:
		if len(in.IngredientIDs) > 0 {
			return nil, invalidArgument("drink cannot have ingredients")
		}
		p = &models.Product{Kind: models.ProductDrink, Name: name, Price: in.Price, Size: in.Size}
	default:
		return nil, invalidArgument("product kind must be PIZZA, PASTA or DRINK")
	}

	if err := p.Validate(); err != nil {
		return nil, invalidArgument(err.Error())
	}

	existing, err := s.products.GetByName(ctx, p.Name)
	if err != nil {
		return nil, storageErr("get product by name", err)
	}
	if existing != nil {
		return nil, ErrProductExists
	}

	// уникальный индекс ловит гонку двух одновременных созданий
	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProductExists
		}
		return nil, storageErr("create product", err)
	}
	s.log.Info("product created", zap.String("product_id", p.ID.String()), zap.String("kind", string(p.Kind)))
	return p, nil
}

func (s *catalogService) resolveIngredients(ctx context.Context, ids []uuid.UUID) ([]models.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	uniq := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	found, err := s.ingredients.BatchGetByIDs(ctx, uniq)
	if err != nil {
		return nil, storageErr("resolve ingredients", err)
	}
	if len(found) != len(uniq) {
		return nil, ErrUnknownIngredient
	}

	// порядок как в запросе
	byID := make(map[uuid.UUID]models.Ingredient, len(found))
	for _, in := range found {
		byID[in.ID] = in
	}
	out := make([]models.Ingredient, 0, len(uniq))
	for _, id := range uniq {
		out = append(out, byID[id])
	}
	return out, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("get product", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

func (s *catalogService) ListProducts(ctx context.Context, f repository.ProductListFilter) ([]models.Product, int64, error) {
	if f.Kind != nil {
		switch *f.Kind {
		case models.ProductPizza, models.ProductPasta, models.ProductDrink:
		default:
			return nil, 0, invalidArgument("unknown product kind")
		}
	}
	list, total, err := s.products.List(ctx, f)
	if err != nil {
		return nil, 0, storageErr("list products", err)
	}
	return list, total, nil
}

func (s *catalogService) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*models.Product, error) {
	if price.IsNegative() {
		return nil, invalidArgument("price must be >= 0")
	}
	ok, err := s.products.UpdatePrice(ctx, id, price)
	if err != nil {
		return nil, storageErr("update price", err)
	}
	if !ok {
		return nil, ErrProductNotFound
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ok, err := s.products.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return ErrProductInUse
		}
		return storageErr("delete product", err)
	}
	if !ok {
		return ErrProductNotFound
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
	return nil
}
