package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trackvote/trackvote/app/repository"
	"github.com/trackvote/trackvote/internal/pkg/cache"
	"github.com/trackvote/trackvote/internal/pkg/database"
	"github.com/trackvote/trackvote/internal/pkg/env"
	"github.com/trackvote/trackvote/internal/pkg/jobqueue"
)

// Standalone sync worker. Runs the queue consumers without the HTTP server so
// playlist syncs can be scaled independently of the web process.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	manager := jobqueue.GetManager()
	manager.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down worker...")
	manager.Stop()
}
