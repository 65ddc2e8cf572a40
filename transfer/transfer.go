// Package transfer moves encrypted backups between memory and the chunk store.
//
// A backup is cut into fixed size slices, each stored base64 encoded as its own
// document at chunks/{index}. Downloads run in one of two modes: indexed, when
// the encrypted length is known and chunks are fetched one by one in order,
// and fallback, when it is not and the chunk collection is listed instead.
package transfer

import (
	"encoding/base64"
	"fmt"

	"plumcave/tui/consts"
	"plumcave/tui/consts/errs"
	"plumcave/tui/logger"
	"plumcave/tui/store"
)

type Options struct {
	ChunkSize   int
	Parallelism int
}

type Transfer struct {
	store       store.Store
	logger      logger.Logger
	chunkSize   int
	parallelism int
}

func New(st store.Store, log logger.Logger, opts Options) *Transfer {
	if log == nil {
		log = logger.Nop{}
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = consts.DEFAULT_CHUNK_SIZE
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = consts.DEFAULT_PARALLELISM
	}
	return &Transfer{
		store:       st,
		logger:      log,
		chunkSize:   opts.ChunkSize,
		parallelism: opts.Parallelism,
	}
}

func (s *Transfer) ChunkSize() int {
	return s.chunkSize
}

// TotalChunks is ceil(length / chunkSize).
func TotalChunks(length int64, chunkSize int) int {
	if length <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((length + int64(chunkSize) - 1) / int64(chunkSize))
}

func decodeChunk(doc *store.ChunkDoc) ([]byte, error) {
	if doc == nil || doc.Data == nil || *doc.Data == "" {
		return nil, errs.ErrInvalidChunkFormat
	}
	data, err := base64.StdEncoding.DecodeString(*doc.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk %s: %v", errs.ErrInvalidChunkFormat, doc.ID, err)
	}
	return data, nil
}

func report(progress func(float64), done, total int) {
	if progress != nil && total > 0 {
		progress(float64(done) / float64(total))
	}
}
