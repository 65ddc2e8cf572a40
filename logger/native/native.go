package native

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"plumcave/tui/logger"

	"github.com/google/uuid"
)

type Native struct {
	filePath string
	maxSize  int64
	maxTime  int64 // seconds
	minLevel logger.Level
	logs     chan *logger.Log
	sessid   string

	mu     sync.Mutex
	writer *os.File
	err    error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(filePath string, maxSize int64, maxTime int64, minLevel logger.Level) (*Native, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	native := &Native{
		filePath: filePath,
		maxSize:  maxSize,
		maxTime:  maxTime,
		minLevel: minLevel,
		logs:     make(chan *logger.Log, 25),
		sessid:   uuid.NewString(),
		writer:   file,
	}

	native.ctx, native.cancel = context.WithCancel(context.Background())
	native.wg.Add(1)
	go func() {
		defer native.wg.Done()
		if err := native.worker(native.ctx); err != nil {
			native.mu.Lock()
			native.err = err
			native.mu.Unlock()
		}
	}()

	return native, nil
}

func (s *Native) SessionID() string {
	return s.sessid
}

// Err returns the write error that stopped the worker, if any.
func (s *Native) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Native) Stop() {
	s.cancel()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer != nil {
		s.writer.Close()
		s.writer = nil
	}
}

// Rotate drops entries older than maxTime, then keeps the newest half when the
// file is still above maxSize.
func (s *Native) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return errors.New("logger stopped")
	}

	stats, err := os.Stat(s.filePath)
	if err != nil {
		return err
	}
	if stats.Size() == 0 {
		return nil
	}

	file, err := os.Open(s.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	cutoff := time.Now().Add(-time.Duration(s.maxTime) * time.Second).UnixMilli()
	logs := make([][]byte, 0)
	currSize := int64(0)
	dropped := false
	dec := json.NewDecoder(file)
	for {
		log := new(logger.Log)
		if err := dec.Decode(log); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if s.maxTime > 0 && log.Time < cutoff {
			dropped = true
			continue
		}
		logBytes, err := json.MarshalIndent(log, "", " ")
		if err != nil {
			return err
		}
		logs = append(logs, logBytes)
		currSize += int64(len(logBytes)) + 1
	}

	start := 0
	if currSize > s.maxSize {
		threshold := s.maxSize / 2 // keep half
		for start < len(logs) && currSize > threshold {
			currSize -= int64(len(logs[start])) + 1
			start++
		}
	}
	if start == 0 && !dropped {
		return nil
	}

	temp, err := os.OpenFile(s.filePath+".tmp", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	for _, logBytes := range logs[start:] {
		if _, err = temp.Write(append(logBytes, '\n')); err != nil {
			temp.Close()
			return err
		}
	}
	if err := temp.Close(); err != nil {
		return err
	}

	s.writer.Close()
	if err = os.Rename(s.filePath+".tmp", s.filePath); err != nil {
		return err
	}

	s.writer, err = os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	return err
}

func (s *Native) Log(level logger.Level, msg string, args ...any) {
	if !level.Enabled(s.minLevel) {
		return
	}
	log := &logger.Log{
		SessionID: s.sessid,
		Level:     level,
		Time:      time.Now().UnixMilli(),
		Message:   msg,
		Args:      args,
	}
	select {
	case s.logs <- log:
	case <-s.ctx.Done():
	}
}

func (s *Native) worker(ctx context.Context) error {
	processLog := func(log *logger.Log) error {
		if len(log.Args) > 0 {
			log.Message = fmt.Sprintf(log.Message, log.Args...)
		}
		log.Args = nil
		bytes, err := json.MarshalIndent(log, "", " ")
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.writer == nil {
			return nil
		}
		_, err = s.writer.Write(append(bytes, '\n'))
		return err
	}

outer:
	for {
		select {
		case <-ctx.Done():
			break outer
		case log := <-s.logs:
			if err := processLog(log); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case log := <-s.logs:
			if err := processLog(log); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
