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
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	launcher "github.com/mortbauer/salome-launcher"
)

// Handler wraps a Source, adding http.Handler functionality.
type Handler struct {
	src Source
	r   *mux.Router
}

func (h *Handler) internalError(w http.ResponseWriter, e error) {
	http.Error(w, e.Error(), http.StatusInternalServerError)
}

func (h *Handler) writeJson(w http.ResponseWriter, etag int64, v interface{}) {
	if b, e := json.Marshal(v); e != nil {
		h.internalError(w, e)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.Header().Set("Etag", formatEtag(etag))
		w.Write(b)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, e *Error) {
	if b, err := json.Marshal(e); err != nil {
		h.internalError(w, err)
	} else {
		w.Header().Set("Content-Type", mimeJson)
		w.WriteHeader(e.Code)
		w.Write(b)
	}
}

func formatEtag(id int64) string {
	return `"` + strconv.FormatInt(id, 10) + `"`
}

func parseEtag(s string) (int64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "W/")
	id, e := strconv.ParseInt(strings.Trim(s, `"`), 10, 64)
	return id, e == nil
}

// pollArgs extracts the cached ETag and the long poll duration from r.
func pollArgs(r *http.Request) (int64, bool, time.Duration) {
	etag, ok := parseEtag(r.Header.Get("If-None-Match"))
	if !ok {
		return 0, false, 0
	}
	secs, _ := strconv.Atoi(r.Header.Get(PollTimeHeader))
	d := time.Duration(secs) * time.Second
	if d > maxPoll {
		d = maxPoll
	}
	return etag, true, d
}

// snapshot returns the current snapshot, waiting first if the client
// asked to be told about changes.  It returns nil if the client's copy
// is still current.
func (h *Handler) snapshot(r *http.Request) *launcher.Snapshot {
	etag, cached, wait := pollArgs(r)
	snap := h.src.Snapshot()
	if !cached {
		return snap
	}
	if snap.Serial == etag && wait > 0 {
		snap = h.src.Watch(etag, wait)
	}
	if snap.Serial == etag {
		return nil
	}
	return snap
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	if snap == nil {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.writeJson(w, snap.Serial, snap)
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	if snap == nil {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	l := make([]string, 0, len(snap.Services))
	for _, si := range snap.Services {
		l = append(l, si.Name)
	}
	h.writeJson(w, snap.Serial, l)
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["service"]
	snap := h.snapshot(r)
	if snap == nil {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if si, ok := snap.Service(name); !ok {
		h.writeError(w, &Error{http.StatusNotFound, "Service not found"})
	} else {
		h.writeJson(w, snap.Serial, si)
	}
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["service"]
	l := h.src.Snapshot().Log(name)
	if l == nil {
		h.writeError(w, &Error{http.StatusNotFound, "Service not found"})
		return
	}
	etag, cached, wait := pollArgs(r)
	if !cached {
		etag = 0
	} else if wait > 0 {
		l.Watch(etag, wait)
	}
	recs, id := l.Records(etag)
	if cached && id == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.writeJson(w, id, recs)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.r.ServeHTTP(w, req)
}

// NewHandler returns a handler over src.  If metrics is not nil it is
// served at /metrics.
func NewHandler(src Source, metrics http.Handler) *Handler {
	r := mux.NewRouter()
	h := &Handler{src: src, r: r}
	r.HandleFunc("/session", h.getSession).Methods("GET")
	r.HandleFunc("/services", h.listServices).Methods("GET")
	r.HandleFunc("/services/{service}", h.getService).Methods("GET")
	r.HandleFunc("/services/{service}/log", h.getLog).Methods("GET")
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}
	return h
}

// Server is a status server bound to a local address.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr.  A port of 0 picks a free one; URL reports it.
func Listen(addr string, h http.Handler) (*Server, error) {
	ln, e := net.Listen("tcp", addr)
	if e != nil {
		return nil, e
	}
	return &Server{
		srv: &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second},
		ln:  ln,
	}, nil
}

// URL is the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// Serve handles requests until Shutdown.
func (s *Server) Serve() error {
	e := s.srv.Serve(s.ln)
	if errors.Is(e, http.ErrServerClosed) {
		return nil
	}
	return e
}

// Shutdown stops the server.  Long polls in progress are abandoned
// once ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
