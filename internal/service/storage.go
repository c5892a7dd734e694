package service

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/repository"
)

// Reloader is a service that caches state read from storage and must re-read
// it after keys are wiped underneath it.
type Reloader interface {
	Reload(ctx context.Context)
}

// StorageService reports on and wipes the key-value store as a whole.
type StorageService struct {
	kv        repository.KeyValueStore
	logger    *slog.Logger
	reloaders []Reloader
}

// NewStorageService takes the services holding in-memory copies of stored
// state; they are reloaded after every wipe.
func NewStorageService(kv repository.KeyValueStore, logger *slog.Logger, reloaders ...Reloader) *StorageService {
	return &StorageService{kv: kv, logger: logger, reloaders: reloaders}
}

// Usage sums key and value lengths over every stored entry.
func (s *StorageService) Usage(ctx context.Context) (model.StorageUsage, error) {
	all, err := s.kv.All(ctx)
	if err != nil {
		return model.StorageUsage{}, apperror.Storage("could not read storage", err)
	}

	var total int64
	for k, v := range all {
		total += int64(len(k) + len(v))
	}
	return model.StorageUsage{
		Keys:  len(all),
		Bytes: total,
		Human: humanize.Bytes(uint64(total)),
	}, nil
}

// ClearLearningData removes the technologies and the notification history.
// Settings, theme and the session survive.
func (s *StorageService) ClearLearningData(ctx context.Context) error {
	for _, key := range []string{repository.KeyTechnologies, repository.KeyNotifications} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return apperror.Storage("could not clear data", err)
		}
	}
	s.reload(ctx)
	s.logger.Info("learning data cleared")
	return nil
}

// ClearAll wipes every key, which also logs the session out.
func (s *StorageService) ClearAll(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return apperror.Storage("could not clear storage", err)
	}
	s.reload(ctx)
	s.logger.Info("storage cleared")
	return nil
}

func (s *StorageService) reload(ctx context.Context) {
	for _, r := range s.reloaders {
		r.Reload(ctx)
	}
}
