// Copyright 2026 The Salome Launcher Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	launcher "github.com/mortbauer/salome-launcher"
)

// LogInfo is a service log as last fetched.
type LogInfo struct {
	etag    string
	Records []launcher.LogRecord
}

// Client reads a status server, caching by ETag.
type Client struct {
	base   string // URI to root of tree on server
	client *http.Client

	// Cached data
	session *launcher.Snapshot
	etag    string
	logs    map[string]*LogInfo
	lock    sync.Mutex
}

func (c *Client) url(name string) string {
	if name == "" {
		return c.base + "/services"
	}
	return c.base + "/services/" + url.PathEscape(name)
}

// Session returns the current session snapshot.
func (c *Client) Session(ctx context.Context) (*launcher.Snapshot, error) {
	return c.pollSession(ctx, 0)
}

// WatchSession waits up to wait for the session to change from what the
// client last saw, and returns it.
func (c *Client) WatchSession(ctx context.Context, wait time.Duration) (*launcher.Snapshot, error) {
	return c.pollSession(ctx, int(wait/time.Second))
}

func (c *Client) pollSession(ctx context.Context, secs int) (*launcher.Snapshot, error) {
	c.lock.Lock()
	otag, cached := c.etag, c.session
	c.lock.Unlock()

	v := &launcher.Snapshot{}
	etag, e := c.poll(ctx, c.base+"/session", otag, secs, v)
	if e != nil {
		return nil, e
	}
	if etag == "" {
		return cached, nil
	}
	c.lock.Lock()
	c.etag = etag
	c.session = v
	c.lock.Unlock()
	return v, nil
}

// Services returns the names of the session's services.
func (c *Client) Services(ctx context.Context) ([]string, error) {
	var v []string
	if _, e := c.poll(ctx, c.url(""), "", 0, &v); e != nil {
		return nil, e
	}
	return v, nil
}

// Service returns one service.
func (c *Client) Service(ctx context.Context, name string) (*launcher.ServiceInfo, error) {
	v := &launcher.ServiceInfo{}
	if _, e := c.poll(ctx, c.url(name), "", 0, v); e != nil {
		return nil, e
	}
	return v, nil
}

// Log returns the service's output log, using the cached copy if the
// server says it has not changed.
func (c *Client) Log(ctx context.Context, name string) (*LogInfo, error) {
	c.lock.Lock()
	cached := c.logs[name]
	c.lock.Unlock()

	otag := ""
	if cached != nil {
		otag = cached.etag
	}
	v := &LogInfo{}
	etag, e := c.poll(ctx, c.url(name)+"/log", otag, 0, &v.Records)
	if e != nil {
		c.lock.Lock()
		delete(c.logs, name)
		c.lock.Unlock()
		return nil, e
	}
	if etag == "" {
		return cached, nil
	}
	v.etag = etag
	c.lock.Lock()
	c.logs[name] = v
	c.lock.Unlock()
	return v, nil
}

// poll issues a GET against url, optionally with a cached ETag and a
// long poll wait.  It returns the new ETag, or "" if the resource did
// not change.
func (c *Client) poll(ctx context.Context, url string, etag string, wait int, v interface{}) (string, error) {
	req, e := http.NewRequestWithContext(ctx, "GET", url, nil)
	if e != nil {
		return "", e
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
		if wait > 0 {
			req.Header.Set(PollTimeHeader, strconv.Itoa(wait))
		}
	}
	res, e := c.client.Do(req)
	if e != nil {
		return "", e
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotModified {
		return "", nil
	}
	if res.StatusCode != http.StatusOK {
		rerr := &Error{Code: res.StatusCode, Message: res.Status}
		if body, e := io.ReadAll(res.Body); e == nil {
			json.Unmarshal(body, rerr)
		}
		return "", rerr
	}
	body, e := io.ReadAll(res.Body)
	if e != nil {
		return "", e
	}
	if e := json.Unmarshal(body, v); e != nil {
		return "", e
	}
	return res.Header.Get("Etag"), nil
}

// NewClient returns a Client for the server at baseURI.  The transport
// may be nil to use a default transport.
func NewClient(t http.RoundTripper, baseURI string) *Client {
	if t == nil {
		t = http.DefaultTransport
	}
	return &Client{
		base:   baseURI,
		client: &http.Client{Transport: t},
		logs:   make(map[string]*LogInfo),
	}
}
