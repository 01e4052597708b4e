package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetPollRepository returns the poll repository instance
func (f *Factory) GetPollRepository() PollRepository {
	return f.GetRepositories().Poll
}

// GetPollSongRepository returns the poll song repository instance
func (f *Factory) GetPollSongRepository() PollSongRepository {
	return f.GetRepositories().PollSong
}

// GetSongVoteRepository returns the song vote repository instance
func (f *Factory) GetSongVoteRepository() SongVoteRepository {
	return f.GetRepositories().SongVote
}

// GetLinkedAccountRepository returns the linked account repository instance
func (f *Factory) GetLinkedAccountRepository() LinkedAccountRepository {
	return f.GetRepositories().LinkedAccount
}

// GetUserRepository returns the user repository instance
func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
