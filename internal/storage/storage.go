package storage

import (
	"log"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/storage/miniostorage"
)

func NewBlobStorage(opts miniostorage.Options, delay time.Duration) *miniostorage.MinioBlobStorage {
	success := false
	var client *miniostorage.MinioBlobStorage
	var err error

	for !success {
		log.Println("Connecting to blob storage...")
		client, err = miniostorage.NewMinioClient(opts)
		if err != nil {
			log.Printf("Failed to init connection to blob storage: %v\nNext retry in %v...", err, delay)
			time.Sleep(delay)
			continue
		}
		log.Println("Successfully connected blob storage!")
		success = true
	}

	return client
}
