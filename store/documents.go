package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type chunkBody struct {
	Data *string `json:"data"`
}

// Documents maps the Store operations onto any Objects backend.
type Documents struct {
	objs Objects
}

func NewDocuments(objs Objects) *Documents {
	return &Documents{objs: objs}
}

func (s *Documents) GetChunk(ctx context.Context, ref Ref, index int) (*ChunkDoc, error) {
	key := ref.ChunkKey(index)
	body, err := s.objs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeChunk(lastSegment(key), body), nil
}

func (s *Documents) ListChunks(ctx context.Context, ref Ref) ([]*ChunkDoc, error) {
	keys, err := s.objs.List(ctx, ref.ChunksPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	docs := make([]*ChunkDoc, 0, len(keys))
	for _, key := range keys {
		body, err := s.objs.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}
		docs = append(docs, decodeChunk(lastSegment(key), body))
	}
	return docs, nil
}

func (s *Documents) PutChunk(ctx context.Context, ref Ref, index int, data string) error {
	body, err := json.Marshal(chunkBody{Data: &data})
	if err != nil {
		return err
	}
	return s.objs.Put(ctx, ref.ChunkKey(index), body)
}

func (s *Documents) DeleteChunk(ctx context.Context, ref Ref, id string) error {
	return s.objs.Delete(ctx, ref.ChunksPrefix()+id)
}

func (s *Documents) GetBackup(ctx context.Context, ref Ref) (*BackupRecord, error) {
	body, err := s.objs.Get(ctx, ref.RecordKey())
	if err != nil {
		return nil, err
	}
	rec := new(BackupRecord)
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, fmt.Errorf("failed to decode backup record: %w", err)
	}
	return rec, nil
}

func (s *Documents) PutBackup(ctx context.Context, ref Ref, rec *BackupRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.objs.Put(ctx, ref.RecordKey(), body)
}

func (s *Documents) ListBackups(ctx context.Context, email string) ([]*BackupRecord, error) {
	keys, err := s.objs.List(ctx, BackupsPrefix(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	recs := make([]*BackupRecord, 0)
	for _, key := range keys {
		if !strings.HasSuffix(key, "/"+recordName) || strings.Contains(key, "/chunks/") {
			continue
		}
		body, err := s.objs.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}
		rec := new(BackupRecord)
		if err := json.Unmarshal(body, rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Documents) DeleteBackup(ctx context.Context, ref Ref) error {
	return s.objs.Delete(ctx, ref.RecordKey())
}

// A body that is not a JSON object with a string data field yields Data nil.
func decodeChunk(id string, body []byte) *ChunkDoc {
	doc := &ChunkDoc{ID: id, Index: chunkIndex(id)}
	var cb chunkBody
	if err := json.Unmarshal(body, &cb); err == nil {
		doc.Data = cb.Data
	}
	return doc
}
