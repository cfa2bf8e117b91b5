package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slmirrortech-dev/sl-worklog-web-sub001/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openLeaseTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.EditLease{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestAcquire_Success(t *testing.T) {
	db := openLeaseTestDB(t)

	l, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if l.OwnerID != "u1" {
		t.Errorf("OwnerID = %q, want u1", l.OwnerID)
	}
	if l.OwnerName != "Alice" {
		t.Errorf("OwnerName = %q, want Alice", l.OwnerName)
	}
	if l.AcquiredAt.IsZero() || l.LastHeartbeat.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestAcquire_HeldByOther(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	_, err := Acquire(db, ResourceLayout, "u2", "Bob", DefaultTimeout)
	if err == nil {
		t.Fatal("expected error for second acquire")
	}
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("error = %v, want HeldError", err)
	}
	if held.OwnerName != "Alice" {
		t.Errorf("HeldError.OwnerName = %q, want Alice", held.OwnerName)
	}
}

func TestAcquire_Reentrant(t *testing.T) {
	db := openLeaseTestDB(t)

	first, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	second, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if second.LastHeartbeat.Before(first.LastHeartbeat) {
		t.Error("re-acquire should refresh heartbeat")
	}

	var count int64
	db.Model(&models.EditLease{}).Count(&count)
	if count != 1 {
		t.Errorf("lease rows = %d, want 1", count)
	}
}

func TestAcquire_ReclaimsStale(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	// Age the heartbeat past the timeout.
	stale := time.Now().Add(-2 * time.Minute)
	if err := db.Model(&models.EditLease{}).
		Where("resource_type = ?", ResourceLayout).
		Update("last_heartbeat", stale).Error; err != nil {
		t.Fatalf("age lease: %v", err)
	}

	l, err := Acquire(db, ResourceLayout, "u2", "Bob", time.Minute)
	if err != nil {
		t.Fatalf("Acquire over stale lease: %v", err)
	}
	if l.OwnerID != "u2" {
		t.Errorf("OwnerID = %q, want u2", l.OwnerID)
	}
}

func TestAcquire_InsertRaceLoserGetsHeldError(t *testing.T) {
	db := openLeaseTestDB(t)

	// Slip a rival lease in after the existence check but before the
	// insert, reproducing two acquires racing to create the row. The
	// rival write rides the same transaction so the loser's create hits
	// the primary key.
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("rival_lease", func(tx *gorm.DB) {
		if fired {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.EditLease); !ok {
			return
		}
		fired = true
		now := time.Now()
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO edit_leases (resource_type, owner_id, owner_name, acquired_at, last_heartbeat) VALUES (?, ?, ?, ?, ?)",
			ResourceLayout, "u2", "Bob", now, now)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer db.Callback().Create().Remove("rival_lease")

	_, err = Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout)
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("losing acquire = %v, want HeldError", err)
	}
}

func TestAcquire_MissingOwner(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "", "Alice", DefaultTimeout); err == nil {
		t.Fatal("expected error for empty owner id")
	}
}

func TestRelease(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := Release(db, ResourceLayout, "u1"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	status, err := StatusFor(db, ResourceLayout, "u1", DefaultTimeout)
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if status.State != StateFree {
		t.Errorf("State = %q, want free", status.State)
	}
}

func TestRelease_NotHeld(t *testing.T) {
	db := openLeaseTestDB(t)

	if err := Release(db, ResourceLayout, "u1"); !errors.Is(err, ErrNotHeld) {
		t.Errorf("Release on free resource = %v, want ErrNotHeld", err)
	}

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := Release(db, ResourceLayout, "u2"); !errors.Is(err, ErrNotHeld) {
		t.Errorf("Release by non-owner = %v, want ErrNotHeld", err)
	}
}

func TestStatusFor(t *testing.T) {
	db := openLeaseTestDB(t)

	status, err := StatusFor(db, ResourceLayout, "u1", DefaultTimeout)
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if status.State != StateFree {
		t.Errorf("State = %q, want free", status.State)
	}

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	status, err = StatusFor(db, ResourceLayout, "u1", DefaultTimeout)
	if err != nil {
		t.Fatalf("StatusFor self: %v", err)
	}
	if status.State != StateEditingSelf {
		t.Errorf("State = %q, want editing_self", status.State)
	}

	status, err = StatusFor(db, ResourceLayout, "u2", DefaultTimeout)
	if err != nil {
		t.Fatalf("StatusFor other: %v", err)
	}
	if status.State != StateLockedByOther {
		t.Errorf("State = %q, want locked_by_other", status.State)
	}
	if status.OwnerName != "Alice" {
		t.Errorf("OwnerName = %q, want Alice", status.OwnerName)
	}
}

func TestStatusFor_StaleReadsFree(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	stale := time.Now().Add(-2 * time.Minute)
	db.Model(&models.EditLease{}).Where("resource_type = ?", ResourceLayout).
		Update("last_heartbeat", stale)

	status, err := StatusFor(db, ResourceLayout, "u2", time.Minute)
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if status.State != StateFree {
		t.Errorf("State = %q, want free for stale lease", status.State)
	}
}

func TestRenew(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := Renew(db, ResourceLayout, "u1"); err != nil {
		t.Fatalf("Renew: %v", err)
	}
	if err := Renew(db, ResourceLayout, "u2"); !errors.Is(err, ErrNotHeld) {
		t.Errorf("Renew by non-owner = %v, want ErrNotHeld", err)
	}
}

func TestSweepStale(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := Acquire(db, "roster", "u2", "Bob", DefaultTimeout); err != nil {
		t.Fatalf("Acquire roster: %v", err)
	}

	stale := time.Now().Add(-2 * time.Minute)
	db.Model(&models.EditLease{}).Where("resource_type = ?", ResourceLayout).
		Update("last_heartbeat", stale)

	n, err := SweepStale(db, time.Minute)
	if err != nil {
		t.Fatalf("SweepStale: %v", err)
	}
	if n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}

	var count int64
	db.Model(&models.EditLease{}).Count(&count)
	if count != 1 {
		t.Errorf("remaining leases = %d, want 1", count)
	}
}

func TestStartHeartbeat_RenewsUntilCancel(t *testing.T) {
	db := openLeaseTestDB(t)

	l, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := StartHeartbeat(ctx, db, ResourceLayout, "u1", 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		t.Fatalf("unexpected heartbeat error: %v", err)
	default:
	}

	var current models.EditLease
	if err := db.Where("resource_type = ?", ResourceLayout).First(&current).Error; err != nil {
		t.Fatalf("load lease: %v", err)
	}
	if !current.LastHeartbeat.After(l.LastHeartbeat) {
		t.Error("expected heartbeat to advance")
	}
}

func TestStartHeartbeat_ReportsLostLease(t *testing.T) {
	db := openLeaseTestDB(t)

	if _, err := Acquire(db, ResourceLayout, "u1", "Alice", DefaultTimeout); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := StartHeartbeat(ctx, db, ResourceLayout, "u1", 10*time.Millisecond)

	// Someone else clears the lease out from under the editor.
	if err := Release(db, ResourceLayout, "u1"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrNotHeld) {
			t.Errorf("heartbeat error = %v, want ErrNotHeld", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected heartbeat to report lost lease")
	}
}
