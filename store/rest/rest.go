// Package rest talks to a plain HTTP document service. Requests are signed
// with HMAC-SHA256 when a client secret is configured.
package rest

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"plumcave/tui/logger"
	"plumcave/tui/store"
	"plumcave/tui/utils"

	"github.com/hashicorp/go-retryablehttp"
)

type Config struct {
	BaseURL  string
	ClientID string
	Secret   string
	Timeout  time.Duration
	RetryMax int
}

type Rest struct {
	domain *url.URL
	client *http.Client
	routes map[RouteKey]*Route

	clientID string
	secret   []byte
}

type listResponse struct {
	Keys []string `json:"keys"`
}

// retryLogger routes retryablehttp messages into our logger.
type retryLogger struct {
	log logger.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Log(logger.ErrorLevel, "retry: %s %v", msg, keysAndValues)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Log(logger.DebugLevel, "retry: %s %v", msg, keysAndValues)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Log(logger.WarnLevel, "retry: %s %v", msg, keysAndValues)
}

func New(cfg Config, log logger.Logger) (*Rest, error) {
	if log == nil {
		log = logger.Nop{}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = &retryLogger{log: log}

	s := &Rest{
		client:   retryClient.StandardClient(),
		clientID: cfg.ClientID,
		secret:   []byte(cfg.Secret),
	}
	if err := s.register(cfg.BaseURL); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Rest) Get(ctx context.Context, key string) ([]byte, error) {
	resp, body, err := s.Hit(ctx, Routes.GetObject, QueryParams{QKey: key}, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := statusErr(resp, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (s *Rest) Put(ctx context.Context, key string, data []byte) error {
	resp, body, err := s.Hit(ctx, Routes.PutObject, QueryParams{QKey: key}, nil, &BodyParams{
		ConType: ConType.JSON,
		Body:    data,
	})
	if err != nil {
		return err
	}
	return statusErr(resp, body)
}

func (s *Rest) Delete(ctx context.Context, key string) error {
	resp, body, err := s.Hit(ctx, Routes.DeleteObject, QueryParams{QKey: key}, nil, nil)
	if err != nil {
		return err
	}
	return statusErr(resp, body)
}

func (s *Rest) List(ctx context.Context, prefix string) ([]string, error) {
	resp, body, err := s.Hit(ctx, Routes.ListObjects, QueryParams{QPrefix: prefix}, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := statusErr(resp, body); err != nil {
		return nil, err
	}

	list := new(listResponse)
	if err := json.Unmarshal(body, list); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	if list.Keys == nil {
		list.Keys = make([]string, 0)
	}
	return list.Keys, nil
}

func (s *Rest) Hit(ctx context.Context, rKey RouteKey, queries QueryParams, headers HeaderParams, body *BodyParams) (resp *http.Response, respBody []byte, err error) {
	route, ok := s.routes[rKey]
	if !ok {
		return nil, nil, fmt.Errorf("not a valid route")
	}

	urlStr := route.URL
	if len(queries) > 0 {
		url, err := url.Parse(route.URL)
		if err != nil {
			return nil, nil, err
		}
		q := url.Query()
		for key, value := range queries {
			q.Set(string(key), value)
		}
		url.RawQuery = q.Encode()
		urlStr = url.String()
	}

	if body == nil {
		body = &BodyParams{
			ConType: ConType.Nil,
			Body:    nil,
		}
	}
	var reqBody io.Reader
	if len(body.Body) > 0 {
		reqBody = bytes.NewReader(body.Body)
	}

	req, err := http.NewRequestWithContext(ctx, route.Method, urlStr, reqBody)
	if err != nil {
		return nil, nil, err
	}

	if route.Auth && len(s.secret) > 0 {
		if err = s.prepareReq(req, body.Body); err != nil {
			return nil, nil, err
		}
	}

	if body.ConType != ConType.Nil {
		req.Header.Set("Content-Type", body.ConType.String())
	}

	for key, value := range headers {
		req.Header.Set(string(key), value)
	}

	resp, err = s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	return
}

func (s *Rest) prepareReq(req *http.Request, body []byte) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)

	meta := fmt.Sprintf("%s\n%s\n%s\n%s",
		req.Method,
		req.URL.Path,
		req.URL.RawQuery,
		ts,
	)
	metaHash, err := hash([]byte(meta), s.secret)
	if err != nil {
		return err
	}

	bodyHash, err := hash(body, s.secret)
	if err != nil {
		return err
	}

	req.Header.Set(string(HTimestamp), ts)
	req.Header.Set(string(HClientID), s.clientID)
	req.Header.Set(string(HReqSignature), utils.EncodeBase64(metaHash))
	req.Header.Set(string(HBodySignature), utils.EncodeBase64(bodyHash))

	return nil
}

func hash(data []byte, key []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(data); err != nil {
		return nil, err
	}
	return mac.Sum(nil), nil
}

func statusErr(resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case resp.StatusCode >= 300:
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return errors.New(resp.Status + ": " + msg)
	}
	return nil
}
