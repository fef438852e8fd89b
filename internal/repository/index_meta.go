package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tkao/creatorlens/internal/domain"
)

// IndexMeta records which embedding configuration built the vector index.
// There is at most one row; it pins the provider, model, and dimension the
// index was created with.
type IndexMeta struct {
	ID        uint   `gorm:"primaryKey"`
	Provider  string `gorm:"size:64;not null"`
	Model     string `gorm:"size:128;not null"`
	Dimension int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (IndexMeta) TableName() string {
	return "index_meta"
}

// IndexMetaRepository guards index/embedder compatibility.
type IndexMetaRepository struct {
	db *gorm.DB
}

// NewIndexMetaRepository creates a new IndexMetaRepository
func NewIndexMetaRepository(db *gorm.DB) *IndexMetaRepository {
	return &IndexMetaRepository{db: db}
}

// EnsureCompatible checks the recorded index configuration against the active
// embedder. On first use it records the configuration. A mismatch means the
// index holds vectors from a different embedding space and is a permanent
// error until the index is rebuilt.
func (r *IndexMetaRepository) EnsureCompatible(ctx context.Context, provider, model string, dimension int) error {
	var meta IndexMeta
	err := r.db.WithContext(ctx).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(&IndexMeta{
			Provider:  provider,
			Model:     model,
			Dimension: dimension,
		}).Error
	}
	if err != nil {
		return err
	}

	if meta.Provider != provider || meta.Model != model || meta.Dimension != dimension {
		return domain.Permanent(
			"index was built with "+meta.Provider+"/"+meta.Model+", active embedder is "+provider+"/"+model+": reindex required",
			nil)
	}

	return nil
}

// Reset clears the recorded configuration. Used by reindex tooling after the
// vector collection has been dropped.
func (r *IndexMetaRepository) Reset(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&IndexMeta{}).Error
}
