package valuerepository

import (
	"context"

	"github.com/Amund211/autolru/internal/domain"
)

type ValueRepository interface {
	// GetValue returns domain.ErrValueNotFound when no value is stored for key
	GetValue(ctx context.Context, key string) (domain.Value, error)
	StoreValue(ctx context.Context, value domain.Value) error
	DeleteValue(ctx context.Context, key string) error
}
