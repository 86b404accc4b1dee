package db

import (
	"errors"
	"fmt"
	"log"

	"docrequest/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB

	Campaigns   *CampaignRepository
	Requests    *RequestRepository
	Evidence    *EvidenceRepository
	Submissions *SubmissionRepository
	Audit       *AuditRepository
	Users       *UserRepository
}

// NewStore connects to postgres and migrates the schema. With no DATABASE_URL
// it returns a store whose DB is nil; callers then fall back to memory.
func NewStore(cfg config.Config) (*Store, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set; starting in no-db mode.")
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewStoreFromDB(gdb), nil
}

func NewStoreFromDB(gdb *gorm.DB) *Store {
	return &Store{
		DB:          gdb,
		Campaigns:   NewCampaignRepository(gdb),
		Requests:    NewRequestRepository(gdb),
		Evidence:    NewEvidenceRepository(gdb),
		Submissions: NewSubmissionRepository(gdb),
		Audit:       NewAuditRepository(gdb),
		Users:       NewUserRepository(gdb),
	}
}

func Migrate(gdb *gorm.DB) error {
	if gdb == nil {
		return errDBUnavailable
	}
	return gdb.AutoMigrate(Models()...)
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translateError(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainNotFound(entity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainConflict(entity + " already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domainValidation(entity + " references a missing record")
	default:
		return err
	}
}
