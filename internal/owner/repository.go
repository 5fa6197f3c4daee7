package owner

import "gorm.io/gorm"

type Repository interface {
	FindByGoogleID(googleID string) (*Owner, error)
	FindByID(id string) (*Owner, error)
	FindByPhone(phone string) (*Owner, error)
	CreateOwner(owner *Owner) error
	SetPhone(id string, phone string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByGoogleID(googleID string) (*Owner, error) {
	var owner Owner
	if err := r.db.Where("google_id = ?", googleID).First(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *repository) FindByID(id string) (*Owner, error) {
	var owner Owner
	if err := r.db.Where("id = ?", id).First(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *repository) FindByPhone(phone string) (*Owner, error) {
	var owner Owner
	if err := r.db.Where("phone = ?", phone).First(&owner).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *repository) CreateOwner(owner *Owner) error {
	return r.db.Create(owner).Error
}

func (r *repository) SetPhone(id string, phone string) error {
	return r.db.Model(&Owner{}).Where("id = ?", id).Update("phone", phone).Error
}
