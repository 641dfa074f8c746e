// internal/services/testutil_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pmdq/biodiversity-backend/internal/config"
	"github.com/pmdq/biodiversity-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SubSpecies{},
		&models.Requirement{},
		&models.RequirementList{},
		&models.RequirementItem{},
		&models.PermitApplication{},
		&models.TransportEntry{},
		&models.CollectionEntry{},
		&models.UploadedRequirement{},
		&models.Remark{},
		&models.Permit{},
		&models.PermittedToCollectAnimal{},
		&models.Validation{},
		&models.PaymentOrder{},
		&models.ORItem{},
		&models.Payment{},
		&models.Inspection{},
		&models.Signature{},
		&models.AuditLog{},
		&models.AdminNotification{},
	))

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Permits: config.PermitConfig{
			RegionCode: "PMDQ",
			Validity: map[string]int{
				"WFP": 1825, "WCP": 1825, "LTP": 30, "CWR": 30, "GP": 30,
			},
		},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
		Email:    config.EmailConfig{SMTPHost: "localhost", SMTPPort: "2525"},
	}
}

func newTestServices(t *testing.T) (*gorm.DB, *testServiceSet) {
	t.Helper()
	db := setupTestDB(t)
	cfg := testConfig()

	notificationService := NewNotificationService(db, cfg)
	storageService := NewStorageService(cfg)
	signatureService := NewSignatureService(db)
	applicationService := NewApplicationService(db, notificationService, storageService, cfg)
	paymentService := NewPaymentService(db, notificationService, cfg)
	inspectionService := NewInspectionService(db, paymentService, signatureService, storageService, notificationService, cfg)
	issuanceService := NewIssuanceService(db, paymentService, inspectionService, applicationService, notificationService, cfg)
	permitService := NewPermitService(db, signatureService, notificationService, cfg)

	return db, &testServiceSet{
		signatures:   signatureService,
		applications: applicationService,
		payments:     paymentService,
		inspections:  inspectionService,
		issuance:     issuanceService,
		permits:      permitService,
	}
}

type testServiceSet struct {
	signatures   *SignatureService
	applications *ApplicationService
	payments     *PaymentService
	inspections  *InspectionService
	issuance     *IssuanceService
	permits      *PermitService
}

func createTestClient(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username:  "client_" + uuid.New().String()[:8],
		Email:     uuid.New().String()[:8] + "@example.com",
		Role:      models.UserRoleClient,
		Status:    models.UserStatusActive,
		FirstName: "Juan",
		LastName:  "dela Cruz",
	}
	require.NoError(t, user.SetPassword("Password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestAdmin(t *testing.T, db *gorm.DB, canSign bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:              "admin_" + uuid.New().String()[:8],
		Email:                 uuid.New().String()[:8] + "@biodiversity.gov.ph",
		Role:                  models.UserRoleAdmin,
		Status:                models.UserStatusActive,
		PaymentOrderSignatory: true,
		PermitSignatory:       true,
	}
	if canSign {
		user.Title = "Chief, Permits Section"
		user.SignatureImageKey = "signatures/" + uuid.New().String()[:8] + ".png"
	}
	require.NoError(t, user.SetPassword("Password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestValidator(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username: "validator_" + uuid.New().String()[:8],
		Email:    uuid.New().String()[:8] + "@biodiversity.gov.ph",
		Role:     models.UserRoleValidator,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestSpecies(t *testing.T, db *gorm.DB, name string) *models.SubSpecies {
	t.Helper()
	species := &models.SubSpecies{
		CommonName:     name,
		ScientificName: "Testus " + name,
		MainSpeciesID:  uuid.New(),
	}
	require.NoError(t, db.Create(species).Error)
	return species
}

// createReleasedPermit inserts a released permit directly, for tests that
// need prerequisite permits without running the whole workflow.
func createReleasedPermit(t *testing.T, db *gorm.DB, clientID uuid.UUID, permitType models.PermitType, validDays int) *models.Permit {
	t.Helper()
	now := time.Now()
	issued := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	validUntil := issued.AddDate(0, 0, validDays)

	permit := &models.Permit{
		PermitNo:   "PMDQ-" + string(permitType) + "-" + uuid.New().String()[:8],
		PermitType: permitType,
		ClientID:   clientID,
		Status:     models.StatusReleased,
		IssuedDate: &issued,
		ValidUntil: &validUntil,
		ORNo:       "OR-" + uuid.New().String()[:8],
		ORAmount:   500,
	}
	require.NoError(t, db.Create(permit).Error)
	return permit
}

func allowSpecies(t *testing.T, db *gorm.DB, permitID, speciesID uuid.UUID, quantity int) {
	t.Helper()
	require.NoError(t, db.Create(&models.PermittedToCollectAnimal{
		PermitID:     permitID,
		SubSpeciesID: speciesID,
		Quantity:     quantity,
	}).Error)
}
