// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quickserve/quickserve/endpoint"
	quickhttp "github.com/quickserve/quickserve/http"
	"github.com/quickserve/quickserve/http/httpvalidate"
)

// endpoints returns the endpoint table served by the quickserve
// command. Edit this file to add, change or remove endpoints.
func endpoints() []quickhttp.RuntimeOption {
	return []quickhttp.RuntimeOption{
		quickhttp.RegisterEndpoint("GET", "/hello", endpoint.HandlerFunc(hello)),
		quickhttp.RegisterEndpoint("GET", "/ping", endpoint.HandlerFunc(ping)),
		quickhttp.RegisterEndpoint("POST", "/echo", endpoint.HandlerFunc(echo)),
		quickhttp.RegisterEndpoint("GET", "/request-info", endpoint.HandlerFunc(requestInfo)),
		quickhttp.Handle("GET", "/greet", httpvalidate.Request(
			http.HandlerFunc(greet),
			httpvalidate.RequiredParams("name"),
		)),
	}
}

func hello(ctx context.Context, req *endpoint.Request) (*endpoint.Response, error) {
	resp := endpoint.NewResponse(http.StatusOK)
	resp.SetHeader("Content-Type", "text/plain; charset=utf-8")
	resp.SetBodyString("Hello, world!\n")
	return resp, nil
}

func ping(ctx context.Context, req *endpoint.Request) (*endpoint.Response, error) {
	return endpoint.NewResponse(http.StatusOK).SetBodyString("pong"), nil
}

// echo responds with the request body it was sent. Bodies sent with a
// gzip Content-Encoding are echoed back decompressed.
func echo(ctx context.Context, req *endpoint.Request) (*endpoint.Response, error) {
	resp := endpoint.NewResponse(http.StatusOK)
	resp.SetHeader("Content-Type", req.HeaderValue("Content-Type", "application/octet-stream"))
	resp.SetBody(req.Body)
	return resp, nil
}

// requestInfo reports the request back to the caller as JSON. Handy
// for inspecting what a client under test is actually sending.
func requestInfo(ctx context.Context, req *endpoint.Request) (*endpoint.Response, error) {
	info := struct {
		Method     string              `json:"method"`
		Path       string              `json:"path"`
		Proto      string              `json:"proto"`
		Query      map[string][]string `json:"query"`
		Header     map[string][]string `json:"header"`
		RemoteAddr string              `json:"remote_addr"`
		TLS        bool                `json:"tls"`
	}{
		Method:     req.Method,
		Path:       req.Path,
		Proto:      req.Proto,
		Query:      req.Query,
		Header:     req.Header,
		RemoteAddr: req.RemoteAddr,
		TLS:        req.TLS,
	}

	b, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}

	resp := endpoint.NewResponse(http.StatusOK)
	resp.SetHeader("Content-Type", "application/json")
	resp.SetBody(b)
	return resp, nil
}

func greet(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Hello, %s!\n", r.URL.Query().Get("name"))
}
