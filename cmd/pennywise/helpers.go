package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dhalloway/pennywise/internal/config"
	"github.com/dhalloway/pennywise/internal/llm"
	"github.com/dhalloway/pennywise/internal/service"
	"github.com/dhalloway/pennywise/internal/storage"
	"github.com/spf13/viper"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/pennywise/pennywise.db"
	}

	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initLLMClient builds the external model client from configuration.
func initLLMClient() (llm.Client, error) {
	return llm.NewClient(llm.Config{
		Provider: viper.GetString("llm.provider"),
		APIKey:   viper.GetString("llm.api_key"),
		Model:    viper.GetString("llm.model"),
		Timeout:  30 * time.Second,
	})
}
