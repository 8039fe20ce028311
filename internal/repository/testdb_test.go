package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/datasyncfood/datasync-worker/internal/models"
)

// newTestDB opens an isolated in-memory database with the worker's schema.
// The task-queue view mirrors the one the migrations create on Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access connection pool: %v", err)
	}
	// A second connection would see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Company{}, &models.Task{}, &models.TaskCompany{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	for _, table := range []string{"erp_catalog", "marketplace_catalog"} {
		if err := db.Table(table).AutoMigrate(&models.CatalogRow{}); err != nil {
			t.Fatalf("failed to migrate %s: %v", table, err)
		}
	}

	viewSQL := `
		CREATE VIEW vw_task_queue AS
		SELECT tc.id AS pairing_id,
		       tc.task_id,
		       tc.company_id,
		       COALESCE(c.marketplace_merchant_id, '') AS marketplace_merchant_id,
		       tc.status,
		       (t.active AND c.active AND tc.status = 'PENDENTE') AS ready
		FROM task_company tc
		JOIN tasks t ON t.id = tc.task_id
		JOIN companies c ON c.id = tc.company_id
		WHERE tc.id IN (SELECT MAX(id) FROM task_company GROUP BY task_id, company_id)`
	if err := db.Exec(viewSQL).Error; err != nil {
		t.Fatalf("failed to create queue view: %v", err)
	}

	return db
}

func seedCompany(t *testing.T, db *gorm.DB, company *models.Company) *models.Company {
	t.Helper()
	if company.Name == "" {
		company.Name = "Padaria Central"
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to seed company: %v", err)
	}
	return company
}

func seedTask(t *testing.T, db *gorm.DB, task *models.Task) *models.Task {
	t.Helper()
	if task.Name == "" {
		task.Name = "exportar catálogo"
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	return task
}
