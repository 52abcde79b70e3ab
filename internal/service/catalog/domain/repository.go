// internal/service/catalog/domain/repository.go
package domain

import (
	"context"
	"errors"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrBathhouseNotFound = errors.New("bathhouse not found")
	ErrItemNotFound      = errors.New("catalog item not found")
)

// Repository 提供预订核心所需的目录读取。核心不写目录。
type Repository interface {
	// FindRoom 返回房间及其所属门店。
	FindRoom(ctx context.Context, roomID uint) (*Room, *Bathhouse, error)

	// FindBathhouse 按 ID 返回门店。
	FindBathhouse(ctx context.Context, bathhouseID uint) (*Bathhouse, error)

	// FindItems 按 ID 批量返回商品；任何一个缺失即返回 ErrItemNotFound。
	FindItems(ctx context.Context, itemIDs []uint) ([]Item, error)
}
