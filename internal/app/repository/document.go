package repository

import (
	"errors"

	"gorm.io/gorm"

	"backend/internal/app/ds"
)

// Методы для метаданных документов контракта

func (r *Repository) GetDocumentsByContract(tenantID, contractID uint) ([]ds.Document, error) {
	var docs []ds.Document
	err := r.db.Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		Order("id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *Repository) GetDocumentByID(tenantID, id uint) (*ds.Document, error) {
	var doc ds.Document
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) CreateDocument(doc *ds.Document) error {
	return r.db.Create(doc).Error
}

func (r *Repository) DeleteDocument(tenantID, id uint) (*ds.Document, error) {
	doc, err := r.GetDocumentByID(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Delete(&ds.Document{}, doc.ID).Error; err != nil {
		return nil, err
	}
	return doc, nil
}
