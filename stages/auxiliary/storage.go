package auxiliary

import (
	"context"
	"fmt"
	"net/http"

	"plumcave/tui/logger"
	"plumcave/tui/store"
	"plumcave/tui/store/azure"
	"plumcave/tui/store/memory"
	"plumcave/tui/store/rest"
	"plumcave/tui/store/s3"
)

// OpenStore builds the configured backend.
func (s *Settings) OpenStore(ctx context.Context, log logger.Logger) (store.Store, error) {
	objs, err := s.openObjects(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", s.Storage.Backend, err)
	}
	log.Log(logger.InfoLevel, "storage backend: %s", s.Storage.Backend)
	return store.NewDocuments(objs), nil
}

func (s *Settings) openObjects(ctx context.Context, log logger.Logger) (store.Objects, error) {
	httpClient := &http.Client{Timeout: s.Transfer.Timeout}

	switch s.Storage.Backend {
	case "s3":
		c := s.Storage.S3
		return s3.New(ctx, s3.Config{
			Bucket:          c.Bucket,
			Region:          c.Region,
			Endpoint:        c.Endpoint,
			Prefix:          c.Prefix,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			PathStyle:       c.PathStyle,
		}, httpClient)
	case "azure":
		return azure.New(azure.Config{
			ServiceURL: s.Storage.Azure.ServiceURL,
			Container:  s.Storage.Azure.Container,
		}, httpClient)
	case "rest":
		c := s.Storage.Rest
		return rest.New(rest.Config{
			BaseURL:  c.BaseURL,
			ClientID: c.ClientID,
			Secret:   c.Secret,
			Timeout:  s.Transfer.Timeout,
			RetryMax: c.RetryMax,
		}, log)
	case "memory":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", s.Storage.Backend)
}
