package infrastructure

import "artshop/internal/service/art/domain"

// ToDomainArt 将数据库模型转换为领域模型
func ToDomainArt(model *ArtModel) *domain.Art {
	if model == nil {
		return nil
	}
	return &domain.Art{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Price:       model.Price,
		Quantity:    model.Quantity,
		Category:    domain.Category(model.Category),
		ImageURL:    model.ImageURL,
		InStock:     model.InStock,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// FromDomainArt 将领域模型转换为数据库模型
func FromDomainArt(a *domain.Art) *ArtModel {
	if a == nil {
		return nil
	}
	return &ArtModel{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Price:       a.Price,
		Quantity:    a.Quantity,
		Category:    string(a.Category),
		ImageURL:    a.ImageURL,
		InStock:     a.InStock,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
