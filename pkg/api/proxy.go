package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eventpass/companion-sdk/pkg/syncer"
	utilerrors "github.com/eventpass/companion-sdk/pkg/util/errors"
	"github.com/eventpass/companion-sdk/pkg/util/log"
)

// DataSource - fetches the current records for logical tables from the proxy
type DataSource interface {
	FetchTable(ctx context.Context, table string) ([]interface{}, error)
	Fetcher(table string) syncer.Fetcher
	SetSessionToken(token string)
}

type proxySource struct {
	client  Client
	baseURL string
	logger  log.FieldLogger

	tokenMutex sync.RWMutex
	token      string
}

// NewDataSource - creates a data source for the proxy at baseURL. The session
// token comes from the login flow established elsewhere.
func NewDataSource(client Client, baseURL, sessionToken string) DataSource {
	return &proxySource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   sessionToken,
		logger:  log.NewFieldLogger().WithField("component", "dataSource"),
	}
}

// SetSessionToken - replace the session token, e.g. after a re-login
func (p *proxySource) SetSessionToken(token string) {
	p.tokenMutex.Lock()
	defer p.tokenMutex.Unlock()
	p.token = token
}

func (p *proxySource) sessionToken() string {
	p.tokenMutex.RLock()
	defer p.tokenMutex.RUnlock()
	return p.token
}

// checkSessionExpiry - when the session token is a JWT, refuse to fetch with
// one that is already expired instead of burning a round trip on a 401.
// Opaque tokens pass through, the proxy is the authority on those.
func (p *proxySource) checkSessionExpiry(token string) error {
	if strings.Count(token, ".") != 2 {
		return nil
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return utilerrors.ErrProxySessionExpired
	}
	return nil
}

// FetchTable - GET the full record set for a logical table
func (p *proxySource) FetchTable(ctx context.Context, table string) ([]interface{}, error) {
	token := p.sessionToken()
	if err := p.checkSessionExpiry(token); err != nil {
		return nil, err
	}

	response, err := p.client.Send(ctx, Request{
		Method: GET,
		URL:    fmt.Sprintf("%s/rest/v1/%s", p.baseURL, table),
		Headers: map[string]string{
			"Authorization": "Bearer " + token,
			"Accept":        "application/json",
		},
	})
	if err != nil {
		return nil, utilerrors.ErrProxyRequestFailed.FormatError(err.Error())
	}
	if response.Code != 200 {
		return nil, utilerrors.ErrProxyBadResponse.FormatError(response.Code, table)
	}

	records := []interface{}{}
	if err := json.Unmarshal(response.Body, &records); err != nil {
		return nil, utilerrors.ErrProxyRequestFailed.FormatError("response body is not a JSON array")
	}
	p.logger.WithField("table", table).WithField("records", len(records)).Debug("fetched table from proxy")
	return records, nil
}

// Fetcher - adapts a table fetch to the shape the sync layer consumes
func (p *proxySource) Fetcher(table string) syncer.Fetcher {
	return func(ctx context.Context) (interface{}, error) {
		records, err := p.FetchTable(ctx, table)
		if err != nil {
			return nil, err
		}
		return records, nil
	}
}
