// testUtils provides helpers shared across medsync test suites.
package testUtils

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// RecordedRequest captures what a test server saw for one call.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Body     []byte
	Header   http.Header
}

// BodyJSON unmarshals the recorded body into dst.
func (r RecordedRequest) BodyJSON(dst interface{}) error {
	return json.Unmarshal(r.Body, dst)
}

// FHIRServer is an httptest server that behaves like a minimal FHIR
// endpoint: metadata probe, type-level search/create, instance-level
// read/update/delete, and root-level bundle submission. Every request is
// recorded in arrival order.
type FHIRServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest

	failStatus int
	failBody   string
}

func NewFHIRServer() *FHIRServer {
	s := &FHIRServer{}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/metadata", func(w http.ResponseWriter, req *http.Request) {
		s.respond(w, http.StatusOK, `{"resourceType":"CapabilityStatement","status":"active"}`)
	})
	r.Post("/", func(w http.ResponseWriter, req *http.Request) {
		body := s.lastBody()
		var bundle map[string]interface{}
		_ = json.Unmarshal(body, &bundle)
		respType := "batch-response"
		if bundle["type"] == "transaction" {
			respType = "transaction-response"
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"resourceType": "Bundle",
			"type":         respType,
			"entry":        bundle["entry"],
		})
	})
	r.Get("/{resourceType}", func(w http.ResponseWriter, req *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"resourceType": "Bundle",
			"type":         "searchset",
			"total":        0,
		})
	})
	r.Post("/{resourceType}", func(w http.ResponseWriter, req *http.Request) {
		var res map[string]interface{}
		_ = json.Unmarshal(s.lastBody(), &res)
		if res == nil {
			res = map[string]interface{}{}
		}
		if _, ok := res["id"]; !ok {
			res["id"] = "generated-1"
		}
		s.respondJSON(w, http.StatusCreated, res)
	})
	r.Get("/{resourceType}/{id}", func(w http.ResponseWriter, req *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"resourceType": chi.URLParam(req, "resourceType"),
			"id":           chi.URLParam(req, "id"),
		})
	})
	r.Put("/{resourceType}/{id}", func(w http.ResponseWriter, req *http.Request) {
		var res map[string]interface{}
		_ = json.Unmarshal(s.lastBody(), &res)
		s.respondJSON(w, http.StatusOK, res)
	})
	r.Delete("/{resourceType}/{id}", func(w http.ResponseWriter, req *http.Request) {
		if !s.maybeFail(w) {
			w.WriteHeader(http.StatusNoContent)
		}
	})

	s.Server = httptest.NewServer(r)
	return s
}

// FailNext makes the next responding handler return the given status and
// body instead of its canned success.
func (s *FHIRServer) FailNext(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
	s.failBody = body
}

// Requests returns the calls seen so far, in arrival order.
func (s *FHIRServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RecordedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent call, or false if none arrived.
func (s *FHIRServer) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *FHIRServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := ioutil.ReadAll(req.Body)
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:   req.Method,
			Path:     req.URL.Path,
			RawQuery: req.URL.RawQuery,
			Body:     body,
			Header:   req.Header.Clone(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (s *FHIRServer) lastBody() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1].Body
}

func (s *FHIRServer) maybeFail(w http.ResponseWriter) bool {
	s.mu.Lock()
	status, body := s.failStatus, s.failBody
	s.failStatus, s.failBody = 0, ""
	s.mu.Unlock()
	if status == 0 {
		return false
	}
	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
	return true
}

func (s *FHIRServer) respond(w http.ResponseWriter, status int, body string) {
	if s.maybeFail(w) {
		return
	}
	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *FHIRServer) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	if s.maybeFail(w) {
		return
	}
	w.Header().Set("Content-Type", "application/fhir+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
