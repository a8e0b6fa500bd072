package postgres

import (
	"errors"
	"strings"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/nodrystarts/site-backend/internal/ports"
	"gorm.io/gorm"
)

func toDomainDownloadToken(row downloadTokenModel) domain.DownloadToken {
	return domain.DownloadToken{
		ID:         row.ID,
		Email:      row.Email,
		SecretHash: row.SecretHash,
		Category:   domain.DocumentCategory(row.Category),
		ExpiresAt:  row.ExpiresAt,
		UsageCount: row.DownloadCount,
		UsageLimit: row.MaxDownloads,
		CreatedAt:  row.CreatedAt,
	}
}

func toDomainLead(row leadModel) domain.Lead {
	return domain.Lead{
		ID:          row.ID,
		FullName:    row.FullName,
		Email:       row.Email,
		Phone:       derefString(row.Phone),
		Message:     row.Message,
		InquiryType: domain.InquiryType(row.InquiryType),
		CreatedAt:   row.CreatedAt,
	}
}

func toLeadModel(lead domain.Lead) leadModel {
	return leadModel{
		ID:          lead.ID,
		FullName:    lead.FullName,
		Email:       lead.Email,
		Phone:       nullableString(lead.Phone),
		Message:     lead.Message,
		InquiryType: string(lead.InquiryType),
		CreatedAt:   lead.CreatedAt,
	}
}

func toDomainRFQ(row rfqModel) domain.RFQSubmission {
	return domain.RFQSubmission{
		ID:             row.ID,
		FullName:       row.FullName,
		Email:          row.Email,
		Phone:          row.Phone,
		Company:        derefString(row.Company),
		Message:        row.Message,
		AttachmentKey:  derefString(row.AttachmentKey),
		AttachmentName: derefString(row.AttachmentName),
		CreatedAt:      row.CreatedAt,
	}
}

func toRFQModel(rfq domain.RFQSubmission) rfqModel {
	return rfqModel{
		ID:             rfq.ID,
		FullName:       rfq.FullName,
		Email:          rfq.Email,
		Phone:          rfq.Phone,
		Company:        nullableString(rfq.Company),
		Message:        rfq.Message,
		AttachmentKey:  nullableString(rfq.AttachmentKey),
		AttachmentName: nullableString(rfq.AttachmentName),
		CreatedAt:      rfq.CreatedAt,
	}
}

func toDomainManufacturer(row manufacturerModel) domain.Manufacturer {
	return domain.Manufacturer{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Address:     row.Address,
		Phone:       row.Phone,
		Email:       row.Email,
		Website:     derefString(row.Website),
		Active:      row.Active,
		CreatedAt:   row.CreatedAt,
	}
}

func toManufacturerModel(m domain.Manufacturer) manufacturerModel {
	return manufacturerModel{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Address:     m.Address,
		Phone:       m.Phone,
		Email:       m.Email,
		Website:     nullableString(m.Website),
		Active:      m.Active,
		CreatedAt:   m.CreatedAt,
	}
}

func toDomainDocument(row documentModel) domain.Document {
	return domain.Document{
		ID:          row.ID,
		FileName:    row.FileName,
		StorageKey:  row.StorageKey,
		ContentType: row.ContentType,
		SizeBytes:   row.SizeBytes,
		Category:    domain.DocumentCategory(row.Category),
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
	}
}

func toDocumentModel(doc domain.Document) documentModel {
	return documentModel{
		ID:          doc.ID,
		FileName:    doc.FileName,
		StorageKey:  doc.StorageKey,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		Category:    string(doc.Category),
		Description: doc.Description,
		CreatedAt:   doc.CreatedAt,
	}
}

func toDomainContentBlock(row contentBlockModel) domain.ContentBlock {
	return domain.ContentBlock{
		ID:          row.ID,
		Slug:        row.Slug,
		Title:       row.Title,
		HTMLContent: row.HTMLContent,
		Order:       row.DisplayOrder,
		Page:        row.Page,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toContentBlockModel(block domain.ContentBlock) contentBlockModel {
	return contentBlockModel{
		ID:           block.ID,
		Slug:         block.Slug,
		Title:        block.Title,
		HTMLContent:  block.HTMLContent,
		DisplayOrder: block.Order,
		Page:         block.Page,
		CreatedAt:    block.CreatedAt,
		UpdatedAt:    block.UpdatedAt,
	}
}

func toDomainAdmin(row adminUserModel) domain.AdminUser {
	return domain.AdminUser{
		AdminID:      row.AdminID,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
}

func toDomainSession(row adminSessionModel) domain.AdminSession {
	return domain.AdminSession{
		SessionID:      row.SessionID,
		AdminID:        row.AdminID,
		IPAddress:      derefString(row.IPAddress),
		UserAgent:      row.UserAgent,
		CreatedAt:      row.CreatedAt,
		LastActivityAt: row.LastActivityAt,
		ExpiresAt:      row.ExpiresAt,
		RevokedAt:      row.RevokedAt,
		RefreshHash:    row.RefreshHash,
	}
}

func toOutboxRecord(row outboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		OutboxID:       row.OutboxID,
		EventType:      row.EventType,
		PartitionKey:   row.PartitionKey,
		Payload:        []byte(row.Payload),
		RetryCount:     row.RetryCount,
		LastError:      row.LastError,
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
		LastErrorAt:    row.LastErrorAt,
		ClaimToken:     row.ClaimToken,
		ClaimUntil:     row.ClaimUntil,
		DeadLetteredAt: row.DeadLetteredAt,
	}
}

func toOutboxModel(event ports.OutboxEvent) outboxModel {
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      string(event.Payload),
		CreatedAt:    event.OccurredAt,
	}
}

func nullableString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// limitOrDefault keeps unbounded admin listings from scanning whole tables.
func limitOrDefault(page ports.Page) int {
	if page.Limit <= 0 {
		return 20
	}
	return page.Limit
}
