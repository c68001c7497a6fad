package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BennettSmith/insurance-intake-api/internal/domain"
	applicationrepoport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/applicationrepo"
	idempotencyport "github.com/BennettSmith/insurance-intake-api/internal/ports/out/idempotency"
)

type CleanupFunc = func()

type ApplicationRepoFactory func(t *testing.T) (applicationrepoport.Repository, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Method:   "POST",
		Route:    "/applications",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}
	rec := idempotencyport.Record{
		StatusCode:  0,
		ContentType: "text/plain",
		Body:        []byte("hash-abc"),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != "hash-abc" || got.ContentType != "text/plain" || got.StatusCode != 0 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte("hash-def")
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != "hash-def" {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}

	// A different body hash is a different record.
	respFP := fp
	respFP.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, respFP); err != nil || ok {
		t.Fatalf("Get other fingerprint: ok=%v err=%v", ok, err)
	}
}

func RunApplicationRepo(t *testing.T, newRepo ApplicationRepoFactory) {
	t.Helper()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t.Run("create and get empty", func(t *testing.T) {
		ctx := context.Background()
		a := newApplication()
		create(t, repo, a)
		err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error { return tx.CreateApplication(ctx, a) })
		if !errors.Is(err, applicationrepoport.ErrAlreadyExists) {
			t.Fatalf("Create duplicate err=%v, want ErrAlreadyExists", err)
		}
		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.ID != a.ID || got.Status != domain.ApplicationStatusDraft || got.MemberID != nil {
			t.Fatalf("unexpected application: %+v", got)
		}
		if got.Member != nil || got.Address != nil || len(got.Vehicles) != 0 || len(got.AdditionalMembers) != 0 {
			t.Fatalf("expected empty relations: %+v", got)
		}
		if !got.CreatedAt.Equal(a.CreatedAt) {
			t.Fatalf("createdAt=%v want=%v", got.CreatedAt, a.CreatedAt)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.Get(context.Background(), domain.ApplicationID(uuid.NewString()))
		if !errors.Is(err, applicationrepoport.ErrNotFound) {
			t.Fatalf("Get err=%v, want ErrNotFound", err)
		}
	})

	t.Run("write all relations in one transaction", func(t *testing.T) {
		ctx := context.Background()
		a := newApplication()
		create(t, repo, a)
		memberID := domain.MemberID(uuid.NewString())
		dob := date(1990, 5, 17)
		zip := 62701
		year := 2019
		spouse := domain.RelationshipSpouse
		touchedAt := a.CreatedAt.Add(time.Minute)

		err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			if err := tx.CreateMember(ctx, domain.Member{ID: memberID, FirstName: "Ada", LastName: "Lovelace", DateOfBirth: &dob}); err != nil {
				return err
			}
			if err := tx.LinkMember(ctx, a.ID, memberID); err != nil {
				return err
			}
			if err := tx.UpsertAddress(ctx, domain.Address{ID: domain.AddressID(uuid.NewString()), ApplicationID: a.ID, Street: "1 Main", City: "Springfield", State: "IL", ZipCode: &zip}); err != nil {
				return err
			}
			if err := tx.CreateVehicles(ctx, []domain.Vehicle{
				{ID: domain.VehicleID(uuid.NewString()), ApplicationID: a.ID, VIN: "VIN1", Year: &year, Make: "Honda", Model: "Civic"},
				{ID: domain.VehicleID(uuid.NewString()), ApplicationID: a.ID, VIN: "VIN2", Make: "Ford", Model: "F150"},
			}); err != nil {
				return err
			}
			if err := tx.CreateAdditionalMembers(ctx, []domain.AdditionalMember{
				{ID: domain.MemberID(uuid.NewString()), ApplicationID: a.ID, FirstName: "Bo", LastName: "Lovelace", DateOfBirth: &dob, Relationship: &spouse},
			}); err != nil {
				return err
			}
			return tx.Touch(ctx, a.ID, touchedAt)
		})
		if err != nil {
			t.Fatalf("InTx: %v", err)
		}

		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.MemberID == nil || *got.MemberID != memberID || got.Member == nil || got.Member.FirstName != "Ada" {
			t.Fatalf("member not linked: %+v", got)
		}
		if got.Member.DateOfBirth == nil || !got.Member.DateOfBirth.Equal(dob) {
			t.Fatalf("dateOfBirth=%v want=%v", got.Member.DateOfBirth, dob)
		}
		if got.Address == nil || got.Address.City != "Springfield" || got.Address.ZipCode == nil || *got.Address.ZipCode != zip {
			t.Fatalf("address=%+v", got.Address)
		}
		if len(got.Vehicles) != 2 || got.Vehicles[0].VIN != "VIN1" || got.Vehicles[1].VIN != "VIN2" {
			t.Fatalf("vehicles=%+v", got.Vehicles)
		}
		if got.Vehicles[0].Year == nil || *got.Vehicles[0].Year != year || got.Vehicles[1].Year != nil {
			t.Fatalf("vehicle years=%v,%v", got.Vehicles[0].Year, got.Vehicles[1].Year)
		}
		if len(got.AdditionalMembers) != 1 || got.AdditionalMembers[0].Relationship == nil || *got.AdditionalMembers[0].Relationship != spouse {
			t.Fatalf("additionalMembers=%+v", got.AdditionalMembers)
		}
		if !got.UpdatedAt.Equal(touchedAt) {
			t.Fatalf("updatedAt=%v want=%v", got.UpdatedAt, touchedAt)
		}

		// Second pass: update member in place, upsert address, replace children.
		err = repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			m, err := tx.GetMember(ctx, memberID)
			if err != nil {
				return err
			}
			m.FirstName = "Augusta"
			m.DateOfBirth = nil
			if err := tx.UpdateMember(ctx, m); err != nil {
				return err
			}
			if err := tx.UpsertAddress(ctx, domain.Address{ID: domain.AddressID(uuid.NewString()), ApplicationID: a.ID, Street: "2 Elm", City: "Shelbyville", State: "IL"}); err != nil {
				return err
			}
			if err := tx.DeleteVehicles(ctx, a.ID); err != nil {
				return err
			}
			if err := tx.CreateVehicles(ctx, []domain.Vehicle{
				{ID: domain.VehicleID(uuid.NewString()), ApplicationID: a.ID, VIN: "VIN3", Make: "Kia", Model: "Soul"},
			}); err != nil {
				return err
			}
			return tx.DeleteAdditionalMembers(ctx, a.ID)
		})
		if err != nil {
			t.Fatalf("InTx second pass: %v", err)
		}

		got2, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got2.Member == nil || got2.Member.ID != memberID || got2.Member.FirstName != "Augusta" || got2.Member.DateOfBirth != nil {
			t.Fatalf("member=%+v", got2.Member)
		}
		if got2.Address == nil || got2.Address.ID != got.Address.ID || got2.Address.Street != "2 Elm" || got2.Address.ZipCode != nil {
			t.Fatalf("address=%+v (previous id %s)", got2.Address, got.Address.ID)
		}
		if len(got2.Vehicles) != 1 || got2.Vehicles[0].VIN != "VIN3" {
			t.Fatalf("vehicles=%+v", got2.Vehicles)
		}
		if len(got2.AdditionalMembers) != 0 {
			t.Fatalf("additionalMembers=%+v", got2.AdditionalMembers)
		}
	})

	t.Run("failed transaction leaves state untouched", func(t *testing.T) {
		ctx := context.Background()
		a := newApplication()
		create(t, repo, a)
		boom := errors.New("boom")
		err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			memberID := domain.MemberID(uuid.NewString())
			if err := tx.CreateMember(ctx, domain.Member{ID: memberID, FirstName: "Ada"}); err != nil {
				return err
			}
			if err := tx.LinkMember(ctx, a.ID, memberID); err != nil {
				return err
			}
			if err := tx.UpsertAddress(ctx, domain.Address{ID: domain.AddressID(uuid.NewString()), ApplicationID: a.ID, Street: "1 Main"}); err != nil {
				return err
			}
			if err := tx.CreateVehicles(ctx, []domain.Vehicle{{ID: domain.VehicleID(uuid.NewString()), ApplicationID: a.ID, VIN: "V"}}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("InTx err=%v, want boom", err)
		}
		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.MemberID != nil || got.Member != nil || got.Address != nil || len(got.Vehicles) != 0 {
			t.Fatalf("rolled back state leaked: %+v", got)
		}
	})

	t.Run("tx errors on missing rows", func(t *testing.T) {
		ctx := context.Background()
		missing := domain.ApplicationID(uuid.NewString())
		err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			_, err := tx.GetApplication(ctx, missing)
			return err
		})
		if !errors.Is(err, applicationrepoport.ErrNotFound) {
			t.Fatalf("GetApplication err=%v, want ErrNotFound", err)
		}
		err = repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			_, err := tx.GetMember(ctx, domain.MemberID(uuid.NewString()))
			return err
		})
		if !errors.Is(err, applicationrepoport.ErrMemberNotFound) {
			t.Fatalf("GetMember err=%v, want ErrMemberNotFound", err)
		}
	})

	t.Run("mark submitted", func(t *testing.T) {
		ctx := context.Background()
		a := newApplication()
		create(t, repo, a)
		at := a.CreatedAt.Add(time.Hour)
		if err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			return tx.MarkSubmitted(ctx, a.ID, 512.25, at)
		}); err != nil {
			t.Fatalf("MarkSubmitted: %v", err)
		}
		got, err := repo.Get(ctx, a.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Status != domain.ApplicationStatusSubmitted || got.QuoteNumber == nil || *got.QuoteNumber != 512.25 {
			t.Fatalf("unexpected submitted application: %+v", got)
		}
		if got.SubmittedAt == nil || !got.SubmittedAt.Equal(at) {
			t.Fatalf("submittedAt=%v want=%v", got.SubmittedAt, at)
		}
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		a := newApplication()
		create(t, repo, a)
		memberID := domain.MemberID(uuid.NewString())
		if err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			if err := tx.CreateMember(ctx, domain.Member{ID: memberID, FirstName: "Ada"}); err != nil {
				return err
			}
			if err := tx.LinkMember(ctx, a.ID, memberID); err != nil {
				return err
			}
			return tx.CreateVehicles(ctx, []domain.Vehicle{{ID: domain.VehicleID(uuid.NewString()), ApplicationID: a.ID, VIN: "V"}})
		}); err != nil {
			t.Fatalf("InTx: %v", err)
		}
		if err := repo.Delete(ctx, a.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Get(ctx, a.ID); !errors.Is(err, applicationrepoport.ErrNotFound) {
			t.Fatalf("Get after delete err=%v, want ErrNotFound", err)
		}
		if err := repo.Delete(ctx, a.ID); !errors.Is(err, applicationrepoport.ErrNotFound) {
			t.Fatalf("Delete twice err=%v, want ErrNotFound", err)
		}
		err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
			_, err := tx.GetMember(ctx, memberID)
			return err
		})
		if !errors.Is(err, applicationrepoport.ErrMemberNotFound) {
			t.Fatalf("primary member survived delete: err=%v", err)
		}
	})
}

func create(t *testing.T, repo applicationrepoport.Repository, a domain.Application) {
	t.Helper()
	ctx := context.Background()
	if err := repo.InTx(ctx, func(tx applicationrepoport.Tx) error {
		return tx.CreateApplication(ctx, a)
	}); err != nil {
		t.Fatalf("CreateApplication: %v", err)
	}
}

func newApplication() domain.Application {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Application{
		ID:        domain.ApplicationID(uuid.NewString()),
		Status:    domain.ApplicationStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
