package jobqueue

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2/log"

	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/env"
	"github.com/trackvote/trackvote/internal/pkg/spotify"
	"github.com/trackvote/trackvote/internal/pkg/tokens"
)

// Manager wires the sync queue to its collaborators and owns its lifecycle.
// The web process uses it as a producer only; the worker process also starts
// it so the queue's consumers run.
type Manager struct {
	queue   *Queue
	mu      sync.Mutex
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global sync queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 1
		if v, err := strconv.Atoi(env.GetEnv("SYNC_WORKER_COUNT", "1")); err == nil && v > 0 {
			workerCount = v
		}

		client := spotify.NewClient(spotify.NewConfigFromEnv())
		repos := repository.GetGlobalRepositories()
		tokenManager := tokens.NewManager(repos.LinkedAccount, client)
		processor := NewPlaylistProcessor(repos.Poll, repos.PollSong, tokenManager, client)

		globalManager = &Manager{
			queue: NewQueue(processor, workerCount),
		}
	})
	return globalManager
}

// GetQueue returns the managed sync queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// ScheduleResync enqueues a debounced playlist resync for the poll
func (m *Manager) ScheduleResync(pollID uint) error {
	_, err := m.queue.ScheduleResync(pollID)
	return err
}

// Start starts the queue workers and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.running = true
	log.Info("[SyncQueue Manager] Starting sync queue")
	m.queue.Start()
	log.Info("[SyncQueue Manager] Started successfully")
}

// Stop stops the queue workers, waiting for an in-flight job to finish
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[SyncQueue Manager] Stopping sync queue...")
	m.queue.Stop()
	m.running = false
	log.Info("[SyncQueue Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
