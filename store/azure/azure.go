// Package azure stores backup documents as block blobs in one container.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"plumcave/tui/store"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type Config struct {
	ServiceURL string // account URL, with a SAS query when not public
	Container  string
}

type Azure struct {
	client    *azblob.Client
	container string
}

func New(cfg Config, httpClient *http.Client) (*Azure, error) {
	if cfg.ServiceURL == "" || cfg.Container == "" {
		return nil, errors.New("azure: service url and container are required")
	}

	opts := &azblob.ClientOptions{}
	if httpClient != nil {
		opts.ClientOptions = azcore.ClientOptions{
			Transport: httpClient,
		}
	}
	client, err := azblob.NewClientWithNoCredential(cfg.ServiceURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &Azure{
		client:    client,
		container: cfg.Container,
	}, nil
}

func (s *Azure) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		return nil, mapErr(err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (s *Azure) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.container, key, body, nil)
	if err != nil {
		return fmt.Errorf("azure put %s: %w", key, err)
	}
	return nil
}

func (s *Azure) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *Azure) List(ctx context.Context, prefix string) ([]string, error) {
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})

	keys := make([]string, 0)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure list %s: %w", prefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

func mapErr(err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return store.ErrNotFound
	}
	return err
}
