package rest

import (
	"fmt"
	"net/http"
	"net/url"
)

type RouteKey string

var Routes = struct {
	GetObject    RouteKey
	PutObject    RouteKey
	DeleteObject RouteKey
	ListObjects  RouteKey
}{
	GetObject:    "ObjGet",
	PutObject:    "ObjPut",
	DeleteObject: "ObjDel",
	ListObjects:  "ObjList",
}

type QueryKey string

const (
	QKey    QueryKey = "key"
	QPrefix QueryKey = "prefix"
)

type HeaderKey string

const (
	HTimestamp     HeaderKey = "X-Timestamp"
	HClientID      HeaderKey = "X-Client-ID"
	HReqSignature  HeaderKey = "X-Req-Signature"
	HBodySignature HeaderKey = "X-Body-Signature"
)

type QueryParams map[QueryKey]string

type HeaderParams map[HeaderKey]string

type BodyParams struct {
	ConType ContentType
	Body    []byte
}

type Route struct {
	Method string
	RPath  string
	Auth   bool
	URL    string
}

func (s *Rest) register(domainStr string) error {
	domain, err := url.Parse(domainStr)
	if err != nil {
		return err
	}

	s.domain = domain
	s.routes = map[RouteKey]*Route{
		Routes.GetObject: {
			Method: http.MethodGet,
			RPath:  "objects",
			Auth:   true,
		},
		Routes.PutObject: {
			Method: http.MethodPut,
			RPath:  "objects",
			Auth:   true,
		},
		Routes.DeleteObject: {
			Method: http.MethodDelete,
			RPath:  "objects",
			Auth:   true,
		},
		Routes.ListObjects: {
			Method: http.MethodGet,
			RPath:  "objects/list",
			Auth:   true,
		},
	}

	for _, a := range s.routes {
		rpath, err := url.Parse(a.RPath)
		if err != nil {
			return fmt.Errorf("failed to parse: %s :%v", a.RPath, err)
		}
		a.URL = s.domain.ResolveReference(rpath).String()
	}

	return nil
}

type ContentType string

var ConType = struct {
	Nil   ContentType
	JSON  ContentType
	Octet ContentType
}{
	Nil:   "",
	JSON:  "application/json",
	Octet: "application/octet-stream",
}

func (c ContentType) String() string {
	return string(c)
}
