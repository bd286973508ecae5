package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type ProductService struct {
	uow         uow.UOW
	productRepo ProductRepository
}

func NewProductService(u uow.UOW) (*ProductService, error) {
	productRepo, repoErr := uow.GetRepositoryAs[ProductRepository](u, uow.RepositoryName(repoargs.ProductRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	return &ProductService{
		uow:         u,
		productRepo: productRepo,
	}, nil
}

func (s *ProductService) Create(ctx context.Context, args repoargs.CreateProduct) (*domain.Product, error) {
	if !args.Price.IsPositive() {
		return nil, fmt.Errorf("%w: product price must be positive", domain.ErrValidation)
	}
	if args.Stock < 0 {
		return nil, fmt.Errorf("%w: product stock cannot be negative", domain.ErrValidation)
	}
	if args.WashingFee.IsNegative() {
		return nil, fmt.Errorf("%w: washing fee cannot be negative", domain.ErrValidation)
	}

	product, err := s.productRepo.Create(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return product, nil
}

// ListActive возвращает продукты, доступные покупателям: активные и с ненулевым остатком.
func (s *ProductService) ListActive(ctx context.Context) ([]domain.Product, error) {
	products, err := s.productRepo.ListActive(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return products, nil
}

func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	products, err := s.productRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return products, nil
}
