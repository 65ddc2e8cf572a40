package rest

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"plumcave/tui/store"
	"plumcave/tui/utils"
)

// objectServer is a tiny document service keeping bodies in a map.
type objectServer struct {
	mu      sync.Mutex
	objs    map[string][]byte
	order   []string
	secret  []byte
	badSigs int
}

func (o *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	defer o.mu.Unlock()

	body, _ := io.ReadAll(r.Body)
	if len(o.secret) > 0 && !o.verify(r, body) {
		o.badSigs++
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	key := r.URL.Query().Get("key")
	switch {
	case r.URL.Path == "/api/objects/list":
		prefix := r.URL.Query().Get("prefix")
		keys := make([]string, 0)
		for _, k := range o.order {
			if _, ok := o.objs[k]; ok && strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		json.NewEncoder(w).Encode(listResponse{Keys: keys})
	case r.Method == http.MethodGet:
		b, ok := o.objs[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(b)
	case r.Method == http.MethodPut:
		if _, ok := o.objs[key]; !ok {
			o.order = append(o.order, key)
		}
		o.objs[key] = body
	case r.Method == http.MethodDelete:
		if _, ok := o.objs[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(o.objs, key)
	}
}

func (o *objectServer) verify(r *http.Request, body []byte) bool {
	meta := fmt.Sprintf("%s\n%s\n%s\n%s", r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get(string(HTimestamp)))
	want, _ := hash([]byte(meta), o.secret)
	wantBody, _ := hash(body, o.secret)
	return hmac.Equal(utils.DecodeBase64(r.Header.Get(string(HReqSignature))), want) &&
		hmac.Equal(utils.DecodeBase64(r.Header.Get(string(HBodySignature))), wantBody) &&
		r.Header.Get(string(HClientID)) == "cli-1"
}

func newTestRest(t *testing.T, secret string) (*Rest, *objectServer) {
	t.Helper()
	srv := &objectServer{objs: make(map[string][]byte), secret: []byte(secret)}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	r, err := New(Config{BaseURL: ts.URL + "/api/", ClientID: "cli-1", Secret: secret}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return r, srv
}

func TestRestObjects(t *testing.T) {
	ctx := context.Background()
	r, srv := newTestRest(t, "s3cr3t")

	if _, err := r.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}

	docs := store.NewDocuments(r)
	ref := store.Ref{Email: "a@b.com", BackupID: "proj1"}
	for i, d := range []string{"AAAA", "BBBB", "CCCC"} {
		if err := docs.PutChunk(ctx, ref, i, d); err != nil {
			t.Fatal(err)
		}
	}

	list, err := docs.ListChunks(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || *list[2].Data != "CCCC" {
		t.Fatalf("unexpected listing %+v", list)
	}

	if err := docs.DeleteChunk(ctx, ref, "1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, ref.ChunkKey(1)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if srv.badSigs != 0 {
		t.Fatalf("%d requests failed signature checks", srv.badSigs)
	}
}

func TestRestUnsigned(t *testing.T) {
	r, _ := newTestRest(t, "")
	if err := r.Put(context.Background(), "k", []byte(`{"data":"AA=="}`)); err != nil {
		t.Fatal(err)
	}
	b, err := r.Get(context.Background(), "k")
	if err != nil || string(b) != `{"data":"AA=="}` {
		t.Fatalf("got %q, %v", b, err)
	}
}

func TestRestWrongSecret(t *testing.T) {
	srv := &objectServer{objs: make(map[string][]byte), secret: []byte("right")}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	r, err := New(Config{BaseURL: ts.URL + "/api/", ClientID: "cli-1", Secret: "wrong"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = r.Put(context.Background(), "k", []byte("{}"))
	if err == nil || errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestRestCancelled(t *testing.T) {
	r, _ := newTestRest(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.List(ctx, "data/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
