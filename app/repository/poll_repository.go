package repository

import (
	"gorm.io/gorm"

	"github.com/trackvote/trackvote/app/models"
)

// pollRepository implements the PollRepository interface
type pollRepository struct {
	db *gorm.DB
}

// NewPollRepository creates a new poll repository instance
func NewPollRepository(db *gorm.DB) PollRepository {
	return &pollRepository{db: db}
}

// Create persists the poll and its songs in a single transaction so a poll
// can never exist without its options.
func (r *pollRepository) Create(poll *models.Poll, songs []models.PollSong) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(poll).Error; err != nil {
			return err
		}
		for i := range songs {
			songs[i].PollID = poll.ID
		}
		if len(songs) > 0 {
			if err := tx.Create(&songs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a poll by its ID
func (r *pollRepository) GetByID(id uint) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.First(&poll, id).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// GetByUUID retrieves a poll with its songs by public UUID
func (r *pollRepository) GetByUUID(uuid string) (*models.Poll, error) {
	var poll models.Poll
	err := r.db.Preload("Songs").Where("uuid = ?", uuid).First(&poll).Error
	if err != nil {
		return nil, err
	}
	return &poll, nil
}

// GetByUserID retrieves a paginated list of a user's polls
func (r *pollRepository) GetByUserID(userID uint, offset, limit int) ([]models.Poll, error) {
	var polls []models.Poll
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Offset(offset).Limit(limit).Find(&polls).Error
	return polls, err
}

// Count returns the total number of polls
func (r *pollRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Poll{}).Count(&count).Error
	return count, err
}

// Delete removes a poll by its ID
func (r *pollRepository) Delete(id uint) error {
	return r.db.Delete(&models.Poll{}, id).Error
}
