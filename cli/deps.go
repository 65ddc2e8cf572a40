package cli

import (
	"context"

	"plumcave/tui/backup"
	"plumcave/tui/cipher"
	"plumcave/tui/core"
	"plumcave/tui/logger"
	"plumcave/tui/stages/auxiliary"
	"plumcave/tui/transfer"
)

type deps struct {
	core    *core.Core
	manager *backup.Manager
}

// newDeps wires the session core, the configured store and the transfer
// engine behind one backup.Manager.
func newDeps(ctx context.Context, settings *auxiliary.Settings, log logger.Logger) (*deps, error) {
	ciph := cipher.NewSerpentGCMCipher()
	c := core.NewCore(cipher.NewArgon2With(settings.Crypto.KDFMemoryKiB, settings.Crypto.KDFThreads), ciph)

	st, err := settings.OpenStore(ctx, log)
	if err != nil {
		return nil, err
	}
	chunkSize, err := settings.ChunkSizeBytes()
	if err != nil {
		return nil, err
	}
	tr := transfer.New(st, log, transfer.Options{
		ChunkSize:   chunkSize,
		Parallelism: settings.Transfer.Parallelism,
	})

	return &deps{
		core:    c,
		manager: backup.NewManager(c, ciph, st, tr, log),
	}, nil
}
