package applicationrepo

import (
	"context"
	"testing"
	"time"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	"github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
)

func TestRepo_GetReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepo()
	now := time.Unix(100, 0).UTC()
	if err := r.InTx(ctx, func(tx applicationrepo.Tx) error {
		return tx.CreateApplication(ctx, domain.Application{ID: "a1", Status: domain.ApplicationStatusDraft, CreatedAt: now, UpdatedAt: now})
	}); err != nil {
		t.Fatalf("CreateApplication() err=%v", err)
	}
	year := 2020
	if err := r.InTx(ctx, func(tx applicationrepo.Tx) error {
		return tx.CreateVehicles(ctx, []domain.Vehicle{{ID: "v1", ApplicationID: "a1", VIN: "X", Year: &year}})
	}); err != nil {
		t.Fatalf("InTx() err=%v", err)
	}

	got, err := r.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	*got.Vehicles[0].Year = 1900
	got.Vehicles[0].VIN = "mutated"

	again, err := r.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if again.Vehicles[0].VIN != "X" || *again.Vehicles[0].Year != 2020 {
		t.Fatalf("stored vehicle was mutated through returned value: %+v", again.Vehicles[0])
	}
}

func TestRepo_InTxCanceledContextDiscardsWrites(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	if err := r.InTx(context.Background(), func(tx applicationrepo.Tx) error {
		return tx.CreateApplication(context.Background(), domain.Application{ID: "a1", Status: domain.ApplicationStatusDraft})
	}); err != nil {
		t.Fatalf("CreateApplication() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := r.InTx(ctx, func(tx applicationrepo.Tx) error {
		cancel()
		return tx.CreateVehicles(ctx, []domain.Vehicle{{ID: "v1", ApplicationID: "a1", VIN: "X"}})
	})
	if err == nil {
		t.Fatalf("InTx() err=nil, want context canceled")
	}
	got, err := r.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if len(got.Vehicles) != 0 {
		t.Fatalf("vehicles=%+v, want none", got.Vehicles)
	}
}

func TestRepo_CreateRejectsEmptyID(t *testing.T) {
	t.Parallel()

	err := NewRepo().InTx(context.Background(), func(tx applicationrepo.Tx) error {
		return tx.CreateApplication(context.Background(), domain.Application{})
	})
	if err == nil {
		t.Fatalf("CreateApplication() err=nil, want error")
	}
}
