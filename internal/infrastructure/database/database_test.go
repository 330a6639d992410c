package database

import (
	"context"
	"testing"

	"pointledger/internal/config"
	"pointledger/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
)

func TestOpenSQLiteMigratesLedgerTables(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{
		Driver:      DriverSQLite,
		Path:        ":memory:",
		LogLevel:    "silent",
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(db)

	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("ping: %v", err)
	}
	for _, m := range Models {
		if !db.Migrator().HasTable(m) {
			t.Errorf("expected table for %T", m)
		}
	}
	if SupportsRowLocks(db) {
		t.Fatal("sqlite must not report row lock support")
	}

	acc := &model.Account{UserID: 1, Balance: 10}
	if err := db.Create(acc).Error; err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if err := db.Create(&model.Account{UserID: 1}).Error; err == nil {
		t.Fatal("expected unique violation on user_id")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(&config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDialectorPrefersExplicitDSN(t *testing.T) {
	d, err := dialector(&config.DatabaseConfig{Driver: DriverPostgres, Host: "ignored", DSN: "postgres://u:p@db:5432/points"})
	if err != nil {
		t.Fatal(err)
	}
	if pg, ok := d.(*postgres.Dialector); !ok || pg.DSN != "postgres://u:p@db:5432/points" {
		t.Fatalf("unexpected postgres dialector %#v", d)
	}

	d, err = dialector(&config.DatabaseConfig{Driver: DriverMySQL, User: "root", Host: "db", Port: 3306, Database: "points"})
	if err != nil {
		t.Fatal(err)
	}
	if my, ok := d.(*mysql.Dialector); !ok || my.DSN != "root:@tcp(db:3306)/points?charset=utf8mb4&parseTime=True&loc=Local" {
		t.Fatalf("unexpected mysql dialector %#v", d)
	}
}
