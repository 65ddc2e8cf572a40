package entry

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"plumcave/tui/backup"
	"plumcave/tui/consts/errs"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/stages/auxiliary"
	"plumcave/tui/utils"
)

type Service struct {
	logger   logger.Logger
	core     *core.Core
	manager  *backup.Manager
	recent   *RecentManager
	settings *auxiliary.Settings
}

func NewService(logger logger.Logger, core *core.Core, manager *backup.Manager, recent *RecentManager,
	settings *auxiliary.Settings) *Service {
	return &Service{
		logger:   logger,
		core:     core,
		manager:  manager,
		recent:   recent,
		settings: settings,
	}
}

func (s *Service) emitErr(errf *errs.Errorf) error {
	if errf.Type == "" {
		errf.Type = errs.Kind(errf.Error)
	}
	s.logger.Log(logger.ErrorLevel, "%v: %v: %v: %v", errf.Type, errf.Error, errf.Message, errf.ReturnRaw)
	return fmt.Errorf("%s", errf.Message)
}

// >>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>

// Login derives the master key for email and pwd and opens the session.
// There is no account to check against, any valid pair opens its own space.
func (s *Service) Login(email string, pwd []byte, remember bool) error {
	defer clear(pwd)
	email = strings.TrimSpace(email)

	if recommendation := utils.VerifyEmailFormat(email); recommendation != "" {
		return s.emitErr(&errs.Errorf{
			Type:    errs.ErrInvalidFormat,
			Message: recommendation,
		})
	}
	if recommendation := utils.VerifyPassFormat(pwd); recommendation != "" {
		return s.emitErr(&errs.Errorf{
			Type:    errs.ErrInvalidFormat,
			Message: recommendation,
		})
	}

	if err := s.core.Login(email, pwd); err != nil {
		return s.emitErr(&errs.Errorf{
			Error:   err,
			Message: "Failed to log in. Try Again!",
		})
	}
	s.logger.Log(logger.InfoLevel, "session opened")

	// without a keyring the user only misses received tags
	if err := s.manager.EnsureKeyring(context.Background()); err != nil {
		s.logger.Log(logger.WarnLevel, "failed to set up keyring: %v", err)
	}

	if remember {
		if err := s.recent.Add(email); err != nil {
			s.logger.Log(logger.WarnLevel, "failed to remember login: %v", err)
		}
	}
	return nil
}

func (s *Service) RecentEmails() []string {
	return s.recent.Get()
}

func (s *Service) ForgetEmails() error {
	if err := s.recent.Forget(); err != nil {
		return s.emitErr(&errs.Errorf{
			Type:    errs.ErrStorageFailed,
			Error:   err,
			Message: "Failed to clear remembered logins.",
		})
	}
	return nil
}

// >>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>

// FetchShared restores the backup behind tag into the working directory.
func (s *Service) FetchShared(ctx context.Context, tag string, progress backup.Progress) (string, error) {
	if strings.TrimSpace(tag) == "" {
		return "", s.emitErr(&errs.Errorf{
			Type:    errs.ErrMissingField,
			Message: "Paste a tag first.",
		})
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Type:    errs.ErrDependencyFailed,
			Error:   fmt.Errorf("failed to get wd: %v", err),
			Message: "Failed to fetch. Try Again!",
		})
	}

	path, err := s.manager.FetchShared(ctx, tag, dir, progress)
	if err != nil {
		return "", s.emitErr(&errs.Errorf{
			Error:   fmt.Errorf("failed to fetch shared backup: %w", err),
			Message: errs.Describe(err, "Failed to fetch. Try Again!"),
		})
	}
	return path, nil
}

// >>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>>

// ConfigText renders the effective settings, secrets masked.
func (s *Service) ConfigText() (string, error) {
	var buf bytes.Buffer
	if err := s.settings.Redacted().Encode(&buf); err != nil {
		return "", s.emitErr(&errs.Errorf{
			Type:    errs.ErrInternal,
			Error:   err,
			Message: "Failed to render settings.",
		})
	}
	return fmt.Sprintf("# %s\n\n%s", s.settings.Path, buf.String()), nil
}
