package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/datasyncfood/datasync-worker/internal/models"
)

func TestTaskCompanyRepository_RequestDefaultsToPending(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	pairing := models.TaskCompany{TaskID: 1, CompanyID: 1}
	if err := repo.Request(context.Background(), &pairing); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if pairing.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if pairing.Status != models.StatusPending {
		t.Errorf("expected status PENDENTE, got %s", pairing.Status)
	}
}

func TestTaskCompanyRepository_Latest(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	first := models.TaskCompany{TaskID: 1, CompanyID: 1}
	second := models.TaskCompany{TaskID: 1, CompanyID: 1}
	other := models.TaskCompany{TaskID: 2, CompanyID: 1}
	for _, p := range []*models.TaskCompany{&first, &second, &other} {
		if err := repo.Request(context.Background(), p); err != nil {
			t.Fatalf("failed to seed pairing: %v", err)
		}
	}

	latest, err := repo.Latest(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Errorf("expected pairing %d, got %+v", second.ID, latest)
	}

	latest, err = repo.Latest(context.Background(), 9, 9)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for unknown pair, got %+v", latest)
	}
}

func TestTaskCompanyRepository_Claim(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	pairing := models.TaskCompany{TaskID: 1, CompanyID: 1}
	if err := repo.Request(context.Background(), &pairing); err != nil {
		t.Fatalf("failed to seed pairing: %v", err)
	}

	if err := repo.Claim(context.Background(), pairing.ID); err != nil {
		t.Fatalf("expected first claim to win, got %v", err)
	}

	// Second claim must lose: the pairing is no longer PENDENTE.
	if err := repo.Claim(context.Background(), pairing.ID); !errors.Is(err, ErrNotClaimed) {
		t.Fatalf("expected ErrNotClaimed, got %v", err)
	}

	var got models.TaskCompany
	if err := db.First(&got, pairing.ID).Error; err != nil {
		t.Fatalf("failed to reload pairing: %v", err)
	}
	if got.Status != models.StatusProcessing {
		t.Errorf("expected status PROCESSANDO, got %s", got.Status)
	}
}

func TestTaskCompanyRepository_FinishAndFail(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	ok := models.TaskCompany{TaskID: 1, CompanyID: 1}
	bad := models.TaskCompany{TaskID: 2, CompanyID: 1}
	for _, p := range []*models.TaskCompany{&ok, &bad} {
		if err := repo.Request(context.Background(), p); err != nil {
			t.Fatalf("failed to seed pairing: %v", err)
		}
	}

	if err := repo.Finish(context.Background(), ok.ID, "Processo realizado com sucesso."); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := repo.Fail(context.Background(), bad.ID, "Categoria não encontrada."); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var got models.TaskCompany
	if err := db.First(&got, ok.ID).Error; err != nil {
		t.Fatalf("failed to reload pairing: %v", err)
	}
	if got.Status != models.StatusFinished || got.Feedback == nil || *got.Feedback != "Processo realizado com sucesso." {
		t.Errorf("unexpected finished pairing: %+v", got)
	}

	got = models.TaskCompany{} // GORM uses a populated primary key on the dest as a query condition
	if err := db.First(&got, bad.ID).Error; err != nil {
		t.Fatalf("failed to reload pairing: %v", err)
	}
	if got.Status != models.StatusError || got.Error == nil || *got.Error != "Categoria não encontrada." {
		t.Errorf("unexpected failed pairing: %+v", got)
	}
}

func TestTaskCompanyRepository_NextReady(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	company := seedCompany(t, db, &models.Company{
		Registration:          "R1",
		TaxID:                 "T1",
		MarketplaceMerchantID: strPtr("merchant-1"),
		Active:                true,
	})
	task := seedTask(t, db, &models.Task{Active: true})

	// Empty queue.
	item, err := repo.NextReady(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item != nil {
		t.Fatalf("expected empty queue, got %+v", item)
	}

	pairing := models.TaskCompany{TaskID: task.ID, CompanyID: company.ID}
	if err := repo.Request(context.Background(), &pairing); err != nil {
		t.Fatalf("failed to seed pairing: %v", err)
	}

	item, err = repo.NextReady(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item == nil {
		t.Fatal("expected a ready item")
	}
	if item.PairingID != pairing.ID || item.TaskID != task.ID || item.CompanyID != company.ID {
		t.Errorf("unexpected queue item: %+v", item)
	}
	if item.MarketplaceMerchantID != "merchant-1" {
		t.Errorf("expected merchant id on queue item, got %q", item.MarketplaceMerchantID)
	}

	// A claimed pairing leaves the queue.
	if err := repo.Claim(context.Background(), pairing.ID); err != nil {
		t.Fatalf("failed to claim: %v", err)
	}
	item, err = repo.NextReady(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item != nil {
		t.Errorf("expected claimed pairing to be excluded, got %+v", item)
	}
}

func TestTaskCompanyRepository_NextReady_LatestPairingWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	company := seedCompany(t, db, &models.Company{Registration: "R1", TaxID: "T1", Active: true})
	task := seedTask(t, db, &models.Task{Active: true})

	old := models.TaskCompany{TaskID: task.ID, CompanyID: company.ID}
	if err := repo.Request(context.Background(), &old); err != nil {
		t.Fatalf("failed to seed pairing: %v", err)
	}
	if err := repo.Finish(context.Background(), old.ID, "ok"); err != nil {
		t.Fatalf("failed to finish pairing: %v", err)
	}

	// Finished history must not block a new request for the same pair.
	fresh := models.TaskCompany{TaskID: task.ID, CompanyID: company.ID}
	if err := repo.Request(context.Background(), &fresh); err != nil {
		t.Fatalf("failed to seed pairing: %v", err)
	}

	item, err := repo.NextReady(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item == nil || item.PairingID != fresh.ID {
		t.Errorf("expected latest pairing %d, got %+v", fresh.ID, item)
	}
}

func TestTaskCompanyRepository_NextReady_InactiveSidesExcluded(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskCompanyRepository(db)

	inactiveCompany := seedCompany(t, db, &models.Company{Registration: "R1", TaxID: "T1", Active: false})
	activeTask := seedTask(t, db, &models.Task{Active: true})

	pairing := models.TaskCompany{TaskID: activeTask.ID, CompanyID: inactiveCompany.ID}
	if err := repo.Request(context.Background(), &pairing); err != nil {
		t.Fatalf("failed to seed pairing: %v", err)
	}

	item, err := repo.NextReady(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if item != nil {
		t.Errorf("expected inactive company to be excluded, got %+v", item)
	}
}
