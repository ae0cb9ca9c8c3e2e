package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brokeranalysis/trust-service/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Broker{},
		&models.PerformanceMetric{},
		&models.QualityMetric{},
		&models.ErrorEvent{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func seedBroker(t *testing.T, repo *BrokerRepository, broker *models.Broker) *models.Broker {
	if err := repo.Create(context.Background(), broker); err != nil {
		t.Fatalf("Failed to seed broker: %v", err)
	}
	return broker
}

func TestBrokerGetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBrokerRepository(db)
	ctx := context.Background()

	seeded := seedBroker(t, repo, &models.Broker{
		Name: "Alpha Markets",
		Slug: "alpha-markets",
		RegulationInfo: &models.RegulationInfo{
			PrimaryRegulator:  "FCA",
			RegulatoryHistory: "clean",
			JurisdictionTier:  "tier1",
		},
		AvgRating:   4.4,
		ReviewCount: 220,
	})

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Failed to get broker: %v", err)
	}
	if got == nil {
		t.Fatal("Expected broker, got nil")
	}
	if got.Name != "Alpha Markets" {
		t.Errorf("Name = %q", got.Name)
	}
	if got.RegulationInfo == nil || got.RegulationInfo.PrimaryRegulator != "FCA" {
		t.Errorf("Regulation info did not round-trip: %+v", got.RegulationInfo)
	}

	missing, err := repo.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("Unexpected error for missing broker: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing broker")
	}
}

func TestBrokerGetAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBrokerRepository(db)
	ctx := context.Background()

	seedBroker(t, repo, &models.Broker{Name: "B1", Slug: "b1"})
	seedBroker(t, repo, &models.Broker{Name: "B2", Slug: "b2"})
	seedBroker(t, repo, &models.Broker{Name: "B3", Slug: "b3"})

	brokers, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("Failed to get brokers: %v", err)
	}
	if len(brokers) != 3 {
		t.Fatalf("Expected 3 brokers, got %d", len(brokers))
	}
	if brokers[0].ID > brokers[1].ID || brokers[1].ID > brokers[2].ID {
		t.Error("Brokers should be ordered by id")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count brokers: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, expected 3", count)
	}
}

func TestUpdateTrustScore(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBrokerRepository(db)
	ctx := context.Background()

	seeded := seedBroker(t, repo, &models.Broker{Name: "Scored", Slug: "scored"})

	result := &models.TrustScoreResult{
		Overall: 68.25,
		Regulation: models.TrustScoreComponent{
			Score:  85,
			Weight: 0.30,
			Factors: map[string]interface{}{
				"primary_regulator": "FCA",
			},
		},
		LastUpdated: time.Now().UTC(),
		Methodology: "trust-score-v1",
	}

	if err := repo.UpdateTrustScore(ctx, seeded.ID, result); err != nil {
		t.Fatalf("Failed to update trust score: %v", err)
	}

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("Failed to reload broker: %v", err)
	}
	if got.TrustScore != 68.25 {
		t.Errorf("TrustScore = %f, expected 68.25", got.TrustScore)
	}
	if got.TrustScoreComponents == nil {
		t.Fatal("Components should be persisted")
	}
	if got.TrustScoreComponents.Regulation.Score != 85 {
		t.Errorf("Regulation component = %f, expected 85", got.TrustScoreComponents.Regulation.Score)
	}
	if got.TrustScoreComponents.Methodology != "trust-score-v1" {
		t.Errorf("Methodology = %q", got.TrustScoreComponents.Methodology)
	}
}

func TestUpdateTrustScoreMissingBroker(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBrokerRepository(db)

	err := repo.UpdateTrustScore(context.Background(), 42, &models.TrustScoreResult{Overall: 50})
	if err == nil {
		t.Error("Expected error for missing broker")
	}
}
