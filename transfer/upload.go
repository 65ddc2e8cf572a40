package transfer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"plumcave/tui/consts/errs"
	"plumcave/tui/logger"
	"plumcave/tui/store"

	"golang.org/x/sync/errgroup"
)

// Upload writes ciphertext as chunks/{0..n-1}. Workers pull chunk indices off
// a queue. Progress only moves forward.
func (s *Transfer) Upload(ctx context.Context, ref store.Ref, ciphertext []byte, progress func(float64)) error {
	total := TotalChunks(int64(len(ciphertext)), s.chunkSize)
	if total == 0 {
		return errs.ErrInvalidInputLength
	}

	tasks := make(chan int, total)
	for i := 0; i < total; i++ {
		tasks <- i
	}
	close(tasks)

	var (
		mu   sync.Mutex
		done int
	)
	errGrp, gctx := errgroup.WithContext(ctx)
	for w := 0; w < min(s.parallelism, total); w++ {
		errGrp.Go(func() error {
			for i := range tasks {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.putChunk(gctx, ref, ciphertext, i); err != nil {
					return err
				}

				mu.Lock()
				done++
				report(progress, done, total)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := errGrp.Wait(); err != nil {
		s.logger.Log(logger.ErrorLevel, "upload of %s stopped: %v", ref.BackupID, err)
		return err
	}
	return nil
}

func (s *Transfer) putChunk(ctx context.Context, ref store.Ref, ciphertext []byte, i int) error {
	start := i * s.chunkSize
	end := min(start+s.chunkSize, len(ciphertext))
	data := base64.StdEncoding.EncodeToString(ciphertext[start:end])
	if err := s.store.PutChunk(ctx, ref, i, data); err != nil {
		return fmt.Errorf("failed to put chunk %d: %w", i, err)
	}
	return nil
}

// Delete removes every chunk of ref and then its record. Objects that are
// already gone are skipped.
func (s *Transfer) Delete(ctx context.Context, ref store.Ref) error {
	docs, err := s.store.ListChunks(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	for _, doc := range docs {
		err := s.store.DeleteChunk(ctx, ref, doc.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to delete chunk %s: %w", doc.ID, err)
		}
	}

	err = s.store.DeleteBackup(ctx, ref)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
