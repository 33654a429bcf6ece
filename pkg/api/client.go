// Package api talks to the companion backend proxy: a thin JSON-over-HTTP
// service fronting the conference database. It is the only network boundary
// of the SDK; the sync layer hands it a table name and gets records back.
package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/eventpass/companion-sdk/pkg/util/log"
)

// HTTP const definitions
const (
	GET  string = http.MethodGet
	POST string = http.MethodPost

	defaultTimeout = time.Second * 60
)

// Request - the request object used when communicating to the proxy
type Request struct {
	Method      string
	URL         string
	QueryParams map[string]string
	Headers     map[string]string
	Body        []byte
}

// Response - the response object given back when communicating to the proxy
type Response struct {
	Code    int
	Body    []byte
	Headers map[string][]string
}

// Client - interface for sending requests to the proxy
type Client interface {
	Send(ctx context.Context, request Request) (*Response, error)
}

type httpClient struct {
	logger     log.FieldLogger
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOpt - optional configuration applied when creating a client
type ClientOpt func(*httpClient)

// WithTimeout - overrides the request timeout
func WithTimeout(timeout time.Duration) ClientOpt {
	return func(h *httpClient) {
		h.timeout = timeout
	}
}

// NewClient - creates a new HTTP client
func NewClient(options ...ClientOpt) Client {
	client := &httpClient{
		timeout: getTimeoutFromEnvironment(),
		logger: log.NewFieldLogger().
			WithField("component", "httpClient"),
	}
	for _, o := range options {
		o(client)
	}
	client.httpClient = &http.Client{
		Transport: &http.Transport{},
		Timeout:   client.timeout,
	}
	return client
}

func getTimeoutFromEnvironment() time.Duration {
	cfgHTTPClientTimeout := os.Getenv("HTTP_CLIENT_TIMEOUT")
	if cfgHTTPClientTimeout == "" {
		return defaultTimeout
	}
	timeout, err := time.ParseDuration(cfgHTTPClientTimeout)
	if err != nil {
		log.Tracef("Unable to parse the HTTP_CLIENT_TIMEOUT value, using the default http client timeout")
		return defaultTimeout
	}
	return timeout
}

func (c *httpClient) getURLEncodedQueryParams(queryParams map[string]string) string {
	params := url.Values{}
	for key, value := range queryParams {
		params.Add(key, value)
	}
	return params.Encode()
}

func (c *httpClient) prepareRequest(ctx context.Context, request Request) (*http.Request, error) {
	requestURL := request.URL
	if len(request.QueryParams) != 0 {
		requestURL += "?" + c.getURLEncodedQueryParams(request.QueryParams)
	}
	req, err := http.NewRequestWithContext(ctx, request.Method, requestURL, bytes.NewBuffer(request.Body))
	if err != nil {
		return nil, err
	}
	for key, value := range request.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.New().String())
	}
	return req, nil
}

// Send - send the http request and return the proxy response
func (c *httpClient) Send(ctx context.Context, request Request) (*Response, error) {
	startTime := time.Now()

	req, err := c.prepareRequest(ctx, request)
	if err != nil {
		c.logger.WithError(err).Error("error preparing proxy request")
		return nil, err
	}

	statusCode := 0
	defer func() {
		c.logger.WithField("method", request.Method).
			WithField("url", request.URL).
			WithField("status", statusCode).
			WithField("duration", time.Since(startTime).String()).
			Trace("proxy request")
	}()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	statusCode = res.StatusCode
	return &Response{
		Code:    res.StatusCode,
		Body:    body,
		Headers: res.Header,
	}, nil
}
