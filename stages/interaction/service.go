package interaction

import (
	"context"
	"errors"
	"fmt"
	"os"

	"plumcave/tui/backup"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/entropy"
	"plumcave/tui/logger"
	"plumcave/tui/stages/auxiliary"
)

type Service struct {
	logger   logger.Logger
	core     *core.Core
	manager  *backup.Manager
	settings *auxiliary.Settings
}

func NewService(logger logger.Logger, core *core.Core, manager *backup.Manager, settings *auxiliary.Settings) *Service {
	return &Service{
		logger:   logger,
		core:     core,
		manager:  manager,
		settings: settings,
	}
}

func (s *Service) emitErr(errf *errs.Errorf) error {
	if errf.Type == "" {
		errf.Type = errs.Kind(errf.Error)
	}
	s.logger.Log(logger.ErrorLevel, "%s: %v: %s: %v", errf.Type, errf.Error, errf.Message, errf.ReturnRaw)
	return fmt.Errorf("%s", errf.Message)
}

// >>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>

func (s *Service) Email() string {
	return s.core.Email()
}

func (s *Service) Logout() {
	s.core.DelSession()
	s.logger.Log(logger.InfoLevel, "session closed")
}

// >>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>

// NewEntropyPool starts a pool ticking at the configured rate. notify gets
// the quality after every mix.
func (s *Service) NewEntropyPool(notify func(quality float64)) (*entropy.Pool, error) {
	pool, err := entropy.New(entropy.WithTick(s.settings.Entropy.Tick), entropy.WithNotify(notify))
	if err != nil {
		return nil, s.emitErr(&errs.Errorf{
			Type:    errs.ErrDependencyFailed,
			Error:   err,
			Message: "Failed to start entropy collection.",
		})
	}
	pool.Start()
	return pool, nil
}

// PointerMixer is the part of an entropy pool mouse handlers feed.
type PointerMixer interface {
	MixPointer(x, y int) error
}

// MixPointer feeds one pointer sample. A sealed pool is expected once the
// upload started, any other failure is logged.
func (s *Service) MixPointer(pool PointerMixer, x, y int) {
	if err := pool.MixPointer(x, y); err != nil && !errors.Is(err, errs.ErrFinalized) {
		s.logger.Log(logger.WarnLevel, "failed to mix pointer sample: %v", err)
	}
}

// CreateBackup finalizes pool and backs up the file at path with it.
func (s *Service) CreateBackup(ctx context.Context, path, description string, pool *entropy.Pool,
	progress backup.Progress) (*backup.Info, error) {
	errMsg := "Failed to create backup. Try Again!"

	snapshot, err := pool.Finalize()
	if err != nil {
		return nil, s.emitErr(&errs.Errorf{
			Error:   err,
			Message: errs.Describe(err, errMsg),
		})
	}

	info, err := s.manager.Create(ctx, path, description, snapshot, progress)
	if err != nil {
		return nil, s.emitErr(&errs.Errorf{
			Error:   fmt.Errorf("failed to create backup: %w", err),
			Message: errs.Describe(err, errMsg),
		})
	}
	return info, nil
}

func (s *Service) ListBackups(ctx context.Context) ([]*backup.Info, error) {
	infos, err := s.manager.List(ctx)
	if err != nil {
		return nil, s.emitErr(&errs.Errorf{
			Type:    errs.ErrStorageFailed,
			Error:   fmt.Errorf("failed to list backups: %w", err),
			Message: errs.Describe(err, "Failed to list backups."),
		})
	}
	return infos, nil
}

// DownloadBackup restores a backup into the working directory.
func (s *Service) DownloadBackup(ctx context.Context, id string, progress backup.Progress) (string, error) {
	errMsg := "Failed to download backup. Try Again!"

	dir, err := os.Getwd()
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Type:    errs.ErrDependencyFailed,
			Error:   fmt.Errorf("failed to get wd: %v", err),
			Message: errMsg,
		})
	}

	path, err := s.manager.Download(ctx, id, dir, progress)
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Error:   fmt.Errorf("failed to download %s: %w", id, err),
			Message: errs.Describe(err, errMsg),
		})
	}
	return path, nil
}

func (s *Service) ShareTag(ctx context.Context, id string) (string, error) {
	tag, err := s.manager.ShareTag(ctx, id)
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Error:   fmt.Errorf("failed to build tag for %s: %w", id, err),
			Message: errs.Describe(err, "Failed to build a share tag."),
		})
	}
	return tag, nil
}

func (s *Service) DeleteBackup(ctx context.Context, id string) error {
	if err := s.manager.Delete(ctx, id); err != nil {
		return s.emitErr(&errs.Errorf{
			Type:    errs.ErrStorageFailed,
			Error:   fmt.Errorf("failed to delete %s: %w", id, err),
			Message: errs.Describe(err, "Failed to delete backup."),
		})
	}
	return nil
}

// >>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>

// SendTag delivers the tag of backup id to the inbox of recipient.
func (s *Service) SendTag(ctx context.Context, id, recipient string) error {
	if err := s.manager.SendTag(ctx, id, recipient); err != nil {
		return s.emitErr(&errs.Errorf{
			Error:   fmt.Errorf("failed to send tag of %s: %w", id, err),
			Message: errs.Describe(err, "Failed to send the tag. Try Again!"),
		})
	}
	return nil
}

func (s *Service) ListReceived(ctx context.Context) ([]*backup.Received, error) {
	received, err := s.manager.ListReceived(ctx)
	if err != nil {
		return nil, s.emitErr(&errs.Errorf{
			Type:    errs.ErrStorageFailed,
			Error:   fmt.Errorf("failed to list received tags: %w", err),
			Message: errs.Describe(err, "Failed to load received tags."),
		})
	}
	return received, nil
}

func (s *Service) DeleteReceived(ctx context.Context, id string) error {
	if err := s.manager.DeleteReceived(ctx, id); err != nil {
		return s.emitErr(&errs.Errorf{
			Type:    errs.ErrStorageFailed,
			Error:   fmt.Errorf("failed to delete received %s: %w", id, err),
			Message: errs.Describe(err, "Failed to delete the received tag."),
		})
	}
	return nil
}

// FetchReceived restores the backup a received tag points at into the
// working directory.
func (s *Service) FetchReceived(ctx context.Context, tag string, progress backup.Progress) (string, error) {
	errMsg := "Failed to fetch. Try Again!"

	dir, err := os.Getwd()
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Type:    errs.ErrDependencyFailed,
			Error:   fmt.Errorf("failed to get wd: %v", err),
			Message: errMsg,
		})
	}

	path, err := s.manager.FetchShared(ctx, tag, dir, progress)
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Error:   fmt.Errorf("failed to fetch received backup: %w", err),
			Message: errs.Describe(err, errMsg),
		})
	}
	return path, nil
}
