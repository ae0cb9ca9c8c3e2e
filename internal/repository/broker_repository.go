package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
	"gorm.io/gorm"
)

// BrokerRepository handles database operations for broker records.
type BrokerRepository struct {
	db *gorm.DB
}

// NewBrokerRepository creates a new broker repository.
func NewBrokerRepository(db *gorm.DB) *BrokerRepository {
	return &BrokerRepository{db: db}
}

// GetAll retrieves every broker record, ordered by id.
func (r *BrokerRepository) GetAll(ctx context.Context) ([]*models.Broker, error) {
	var brokers []*models.Broker
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&brokers).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get brokers: %w", err)
	}

	return brokers, nil
}

// GetByID retrieves one broker, or nil when it does not exist.
func (r *BrokerRepository) GetByID(ctx context.Context, id uint) (*models.Broker, error) {
	var broker models.Broker
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&broker).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broker: %w", err)
	}

	return &broker, nil
}

// Create inserts a broker record.
func (r *BrokerRepository) Create(ctx context.Context, broker *models.Broker) error {
	return r.db.WithContext(ctx).Create(broker).Error
}

// UpdateTrustScore writes back a computed trust score, its full component
// breakdown, and the update timestamp for one broker.
func (r *BrokerRepository) UpdateTrustScore(ctx context.Context, id uint, result *models.TrustScoreResult) error {
	res := r.db.WithContext(ctx).
		Model(&models.Broker{}).
		Where("id = ?", id).
		Select("trust_score", "trust_score_components", "updated_at").
		Updates(&models.Broker{
			TrustScore:           result.Overall,
			TrustScoreComponents: result,
			UpdatedAt:            time.Now(),
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update trust score: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("broker %d not found", id)
	}

	return nil
}

// Count returns the number of broker records.
func (r *BrokerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Broker{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count brokers: %w", err)
	}
	return count, nil
}
