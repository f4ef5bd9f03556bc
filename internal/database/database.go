package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

func New(databaseURL string) (*Database, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// Unique violations must surface as gorm.ErrDuplicatedKey so the
		// sync layer can fall back to an update.
		TranslateError: true,
	}

	isSQLite := strings.HasPrefix(databaseURL, "sqlite://")
	if isSQLite {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig)
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), gormConfig)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Function defaults only exist on postgres. The sqlite dev path gets
	// its UUIDs from the models' BeforeCreate hooks and its timestamps
	// from gorm, so those columns can go without defaults.
	idColumn := "UUID PRIMARY KEY DEFAULT gen_random_uuid()"
	timestampColumn := "TIMESTAMPTZ DEFAULT NOW()"
	if isSQLite {
		idColumn = "TEXT PRIMARY KEY"
		timestampColumn = "TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP"
	}

	// Create tables manually with raw SQL
	createTablesSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS properties (
		id %[1]s,
		external_ref_id TEXT NOT NULL,
		external_reference TEXT NOT NULL,
		title_en TEXT NOT NULL,
		title_ar TEXT,
		description_en TEXT,
		description_ar TEXT,
		price DECIMAL(14,2),
		currency TEXT DEFAULT 'AED',
		location_en TEXT,
		location_ar TEXT,
		bedrooms INTEGER DEFAULT 0,
		bathrooms INTEGER DEFAULT 0,
		area DECIMAL(12,2),
		images TEXT,
		videos TEXT,
		amenities TEXT,
		listing_type TEXT DEFAULT 'sale',
		status TEXT DEFAULT 'available',
		category TEXT DEFAULT 'residential',
		subtype TEXT DEFAULT 'Apartment',
		verified BOOLEAN DEFAULT false,
		featured BOOLEAN DEFAULT false,
		created_at %[2]s,
		updated_at %[2]s
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_external_ref_id
		ON properties (external_ref_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_external_reference
		ON properties (external_reference);

	CREATE TABLE IF NOT EXISTS sync_runs (
		id %[1]s,
		status TEXT DEFAULT 'RUNNING',
		created INTEGER DEFAULT 0,
		updated INTEGER DEFAULT 0,
		errors INTEGER DEFAULT 0,
		started_at %[2]s,
		finished_at TIMESTAMPTZ
	);
	`, idColumn, timestampColumn)

	err = db.Exec(createTablesSQL).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
