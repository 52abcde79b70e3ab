// internal/service/catalog/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"banya/internal/pkg/db"
	"banya/internal/service/catalog/domain"
)

// GormCatalogRepository 是 domain.Repository 的 GORM 实现。
type GormCatalogRepository struct {
	db *gorm.DB
}

func NewGormCatalogRepository(gdb *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: gdb}
}

func (r *GormCatalogRepository) FindRoom(ctx context.Context, roomID uint) (*domain.Room, *domain.Bathhouse, error) {
	var model RoomModel
	err := db.FromContext(ctx, r.db).
		Preload("Bathhouse").
		First(&model, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrRoomNotFound
		}
		return nil, nil, err
	}

	bathhouse, err := ToDomainBathhouse(&model.Bathhouse)
	if err != nil {
		return nil, nil, err
	}
	return ToDomainRoom(&model), bathhouse, nil
}

func (r *GormCatalogRepository) FindBathhouse(ctx context.Context, bathhouseID uint) (*domain.Bathhouse, error) {
	var model BathhouseModel
	err := db.FromContext(ctx, r.db).First(&model, bathhouseID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBathhouseNotFound
		}
		return nil, err
	}
	return ToDomainBathhouse(&model)
}

func (r *GormCatalogRepository) FindItems(ctx context.Context, itemIDs []uint) ([]domain.Item, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	var models []BathhouseItemModel
	err := db.FromContext(ctx, r.db).Where("id IN ?", itemIDs).Find(&models).Error
	if err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(models))
	out := make([]domain.Item, 0, len(models))
	for i := range models {
		found[models[i].ID] = true
		out = append(out, ToDomainItem(&models[i]))
	}
	for _, id := range itemIDs {
		if !found[id] {
			return nil, domain.ErrItemNotFound
		}
	}
	return out, nil
}
