// Package apitest provides test helpers for handlers built with restful.
package apitest

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bjaus/restful"
)

// Client wraps an httptest.Server for convenient handler testing.
type Client struct {
	Server *httptest.Server

	parsers *restful.ParserRegistry
}

// NewClient starts a test server for h. Response bodies are decoded with
// restful.DefaultParsers.
func NewClient(t testing.TB, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Client{Server: srv, parsers: restful.DefaultParsers()}
}

// Request describes a request to send.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Accept      string
	Body        []byte
	Header      http.Header
}

// Response holds a received response.
type Response struct {
	Status  int
	Headers http.Header
	Raw     []byte

	parsers *restful.ParserRegistry
}

// ContentType returns the media type of the response without parameters.
func (r *Response) ContentType() string {
	mt, _, err := mime.ParseMediaType(r.Headers.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// Decode parses the body with the parser registered for the response's
// content type. Problem details are decoded as JSON.
func (r *Response) Decode(t testing.TB) any {
	t.Helper()

	ct := r.ContentType()
	if ct == "application/problem+json" {
		ct = restful.MIMEJSON
	}
	parse, ok := r.parsers.Parser(ct)
	if !ok {
		t.Fatalf("apitest: no parser for response content type %q", ct)
	}
	v, err := parse(r.Raw)
	if err != nil {
		t.Fatalf("apitest: decode %s body: %v", ct, err)
	}
	return v
}

// Do sends req and reads the whole response.
func (c *Client) Do(t testing.TB, req Request) *Response {
	t.Helper()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+req.Path, body)
	if err != nil {
		t.Fatalf("apitest: create request: %v", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("apitest: execute request: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			t.Errorf("apitest: close body: %v", closeErr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("apitest: read body: %v", err)
	}

	return &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
		Raw:     raw,
		parsers: c.parsers,
	}
}

// Post sends body with the given content type.
func (c *Client) Post(t testing.TB, path, contentType string, body []byte) *Response {
	t.Helper()
	return c.Do(t, Request{Method: http.MethodPost, Path: path, ContentType: contentType, Body: body})
}

// Get sends a GET request with the given Accept header.
func (c *Client) Get(t testing.TB, path, accept string) *Response {
	t.Helper()
	return c.Do(t, Request{Method: http.MethodGet, Path: path, Accept: accept})
}
