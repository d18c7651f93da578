// Package pgtest opens the Postgres database used by integration tests.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/arunvm123/ticketbooking/model"
	"github.com/arunvm123/ticketbooking/repository/postgres"
	"github.com/google/uuid"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to TEST_DATABASE_URL and migrates the schema. The test is
// skipped when the variable is unset or the database is unreachable.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Skipf("skipping Postgres integration tests: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := postgres.NewPinger(db).Ping(ctx); err != nil {
		_ = postgres.Close(db)
		t.Skipf("skipping Postgres integration tests: %v", err)
	}
	t.Cleanup(func() { _ = postgres.Close(db) })

	if err := postgres.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a unique email and removes it, together with
// its bookings, when the test ends.
func CreateUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	user, err := postgres.NewUserRepository(db).CreateUser(context.Background(), model.CreateUserRequest{
		Email:        "pgtest-" + uuid.NewString() + "@example.com",
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM bookings WHERE user_id = ?", user.ID)
		db.Exec("DELETE FROM users WHERE id = ?", user.ID)
	})
	return user
}

// CreateEvent inserts an event and removes it, together with its bookings,
// when the test ends.
func CreateEvent(t *testing.T, db *gorm.DB, capacity int) *model.Event {
	t.Helper()

	event, err := postgres.NewEventRepository(db).CreateEvent(context.Background(), model.CreateEventRequest{
		Name:          "Integration Event",
		Description:   "created by tests",
		Category:      model.CategoryMusic,
		Date:          time.Now().UTC().Add(24 * time.Hour),
		Venue:         "Test Hall",
		TotalCapacity: capacity,
	})
	if err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM bookings WHERE event_id = ?", event.ID)
		db.Exec("DELETE FROM events WHERE id = ?", event.ID)
	})
	return event
}
