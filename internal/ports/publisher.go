package ports

import (
	"context"

	"techdebt_export/internal/models"
)

type Publisher interface {
	Render(rec models.DebtRecord) ([]byte, error)
	Publish(ctx context.Context, rec models.DebtRecord) (models.PageRef, error)
}
