package client

import (
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medsync-health/medsync-app/log"
	"github.com/medsync-health/medsync-app/medsync/constants"
	customErrors "github.com/medsync-health/medsync-app/medsync/errors"
)

// executor issues a single HTTP call per invocation. There is no retry at
// this layer; recovery from connectivity loss belongs to the offline
// package.
type executor struct {
	httpClient *http.Client
}

func newExecutor() *executor {
	return &executor{httpClient: &http.Client{}}
}

// do builds and sends one request under the snapshot's timeout and returns
// the raw response body. Non-2xx responses come back as normalized errors;
// transport failures are returned unchanged.
func (e *executor) do(ctx context.Context, cfg *Config, method, path, query string, body interface{}) ([]byte, error) {
	requestURL := buildURL(cfg.BaseURL, path, query)

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, requestURL, payload)
	if err != nil {
		return nil, err
	}
	addRequestHeaders(req, cfg)

	resp, err := e.httpClient.Do(req)
	logRequest(req, resp)
	if resp != nil {
		/* #nosec -- it's OK for us to ignore errors when attempting to cleanup response body */
		defer func() {
			_, _ = io.Copy(ioutil.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
	if err != nil {
		if goerrors.Is(err, context.DeadlineExceeded) {
			return nil, &customErrors.RequestTimeoutError{Timeout: cfg.Timeout}
		}
		return nil, err
	}

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, translateError(resp.StatusCode, http.StatusText(resp.StatusCode), resp.Header, data)
	}

	return data, nil
}

func buildURL(base, path, query string) string {
	u := strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	if query != "" {
		u += "?" + query
	}
	return u
}

func addRequestHeaders(req *http.Request, cfg *Config) {
	req.Header.Set("Content-Type", constants.FHIRJSONContentType)
	req.Header.Set("Accept", constants.FHIRJSONContentType)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(constants.RequestIDHeader, uuid.NewRandom().String())
}

func logRequest(req *http.Request, resp *http.Response) {
	entry := log.FHIR.WithFields(logrus.Fields{
		"method":     req.Method,
		"uri":        req.URL.String(),
		"request_id": req.Header.Get(constants.RequestIDHeader),
	})
	if resp != nil {
		entry = entry.WithField("resp_code", resp.StatusCode)
	}
	entry.Infoln("FHIR request")
}
