package storage

import "context"

type Store interface {
	SaveGame(ctx context.Context, gameID string, data []byte) error
	LoadGame(ctx context.Context, gameID string) ([]byte, error)
	// ListGameIDs returns up to limit ids, newest key first.
	ListGameIDs(ctx context.Context, limit int) ([]string, error)
	ForEachGame(ctx context.Context, fn func(gameID string, data []byte) error) error
}
