package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/tkao/creatorlens/internal/domain"
)

// ScriptRepository persists generated scripts with their grounding provenance.
type ScriptRepository struct {
	db *gorm.DB
}

// NewScriptRepository creates a new ScriptRepository
func NewScriptRepository(db *gorm.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// Create stores a generated script. The structured content is serialized into
// the ContentJSON column.
func (r *ScriptRepository) Create(ctx context.Context, script *domain.GeneratedScript) error {
	if script.Content != nil {
		data, err := json.Marshal(script.Content)
		if err != nil {
			return err
		}
		script.ContentJSON = string(data)
	}
	return r.db.WithContext(ctx).Create(script).Error
}

// GetByID fetches a script and deserializes its content.
func (r *ScriptRepository) GetByID(ctx context.Context, id string) (*domain.GeneratedScript, error) {
	var script domain.GeneratedScript
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&script).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundf("script %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	if err := hydrateContent(&script); err != nil {
		return nil, err
	}
	return &script, nil
}

// ListByChannel returns a channel's scripts, newest first.
func (r *ScriptRepository) ListByChannel(ctx context.Context, channelID string, limit int) ([]domain.GeneratedScript, error) {
	var scripts []domain.GeneratedScript
	q := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&scripts).Error; err != nil {
		return nil, err
	}
	for i := range scripts {
		if err := hydrateContent(&scripts[i]); err != nil {
			return nil, err
		}
	}
	return scripts, nil
}

func hydrateContent(script *domain.GeneratedScript) error {
	if script.ContentJSON == "" {
		return nil
	}
	var content domain.ScriptContent
	if err := json.Unmarshal([]byte(script.ContentJSON), &content); err != nil {
		return err
	}
	script.Content = &content
	return nil
}
