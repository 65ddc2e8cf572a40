package transfer

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"plumcave/tui/consts/errs"
	"plumcave/tui/logger"
	"plumcave/tui/store"
)

// Download reassembles the ciphertext of ref. A positive encryptedLength
// selects indexed mode, anything else falls back to listing the chunks.
// On any failure the partial buffer is wiped and nil is returned.
func (s *Transfer) Download(ctx context.Context, ref store.Ref, encryptedLength int64, progress func(float64)) ([]byte, error) {
	var (
		buf []byte
		err error
	)
	if encryptedLength > 0 {
		buf, err = s.downloadIndexed(ctx, ref, encryptedLength, progress)
	} else {
		buf, err = s.downloadListed(ctx, ref, progress)
	}
	if err != nil {
		clear(buf)
		return nil, err
	}
	return buf, nil
}

// preallocChunks bounds the buffer reserved up front. The encrypted length
// comes from the stored record and is not trusted.
const preallocChunks = 256

func (s *Transfer) downloadIndexed(ctx context.Context, ref store.Ref, encryptedLength int64, progress func(float64)) ([]byte, error) {
	total := TotalChunks(encryptedLength, s.chunkSize)
	buf := make([]byte, 0, min(encryptedLength, int64(s.chunkSize)*preallocChunks))

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return buf, err
		}

		doc, err := s.store.GetChunk(ctx, ref, i)
		if errors.Is(err, store.ErrNotFound) {
			return buf, &errs.MissingChunkError{Index: i}
		}
		if err != nil {
			return buf, fmt.Errorf("failed to get chunk %d: %w", i, err)
		}

		data, err := decodeChunk(doc)
		if err != nil {
			return buf, err
		}
		buf = append(buf, data...)
		clear(data)
		report(progress, i+1, total)
	}

	return buf, nil
}

func (s *Transfer) downloadListed(ctx context.Context, ref store.Ref, progress func(float64)) ([]byte, error) {
	docs, err := s.store.ListChunks(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	if len(docs) == 0 {
		return nil, errs.ErrNoChunksFound
	}

	ordered, err := orderChunks(docs)
	if err != nil {
		return nil, err
	}
	if !ordered {
		s.logger.Log(logger.WarnLevel, "chunks of %s are not indexed, trusting listing order", ref.BackupID)
	}

	buf := make([]byte, 0)
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return buf, err
		}
		data, err := decodeChunk(doc)
		if err != nil {
			return buf, err
		}
		buf = append(buf, data...)
		clear(data)
		report(progress, i+1, len(docs))
	}

	return buf, nil
}

// orderChunks sorts docs by index in place when every doc carries one and
// reports false otherwise. Sorted indices must run 0..n-1 without gaps.
func orderChunks(docs []*store.ChunkDoc) (bool, error) {
	for _, d := range docs {
		if d.Index < 0 {
			return false, nil
		}
	}

	slices.SortFunc(docs, func(a, b *store.ChunkDoc) int {
		return a.Index - b.Index
	})
	for i, d := range docs {
		if d.Index != i {
			return true, &errs.MissingChunkError{Index: i}
		}
	}
	return true, nil
}
