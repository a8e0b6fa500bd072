package postgres

import (
	"github.com/nodrystarts/site-backend/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Tokens        ports.DownloadTokenRepository
	Leads         ports.LeadRepository
	RFQs          ports.RFQRepository
	Manufacturers ports.ManufacturerRepository
	Documents     ports.DocumentRepository
	Blocks        ports.ContentBlockRepository
	Admins        ports.AdminRepository
	Sessions      ports.SessionRepository
	Outbox        ports.OutboxRepository
	Idempotency   ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Tokens:        &downloadTokenRepository{db: db},
		Leads:         &leadRepository{db: db},
		RFQs:          &rfqRepository{db: db},
		Manufacturers: &manufacturerRepository{db: db},
		Documents:     &documentRepository{db: db},
		Blocks:        &contentBlockRepository{db: db},
		Admins:        &adminRepository{db: db},
		Sessions:      &sessionRepository{db: db},
		Outbox:        &outboxRepository{db: db},
		Idempotency:   &idempotencyRepository{db: db},
	}
}
