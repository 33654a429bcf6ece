package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	utilerrors "github.com/eventpass/companion-sdk/pkg/util/errors"
)

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "attendee-1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	assert.Nil(t, err, "There was an unexpected error signing the test token")
	return signed
}

func TestFetchTable(t *testing.T) {
	mock := &MockClient{
		Response: &Response{
			Code: 200,
			Body: []byte(`[{"id":"s-1","name":"Acme"},{"id":"s-2","name":"Globex"}]`),
		},
	}
	source := NewDataSource(mock, "http://proxy.test/", "opaque-session-token")

	records, err := source.FetchTable(context.Background(), TableSponsors)
	assert.Nil(t, err, "There was an unexpected error fetching the table")
	assert.Len(t, records, 2, "The fetched records were wrong")

	sent := mock.Requests[0]
	assert.Equal(t, "http://proxy.test/rest/v1/sponsors", sent.URL, "The table URL was wrong")
	assert.Equal(t, "Bearer opaque-session-token", sent.Headers["Authorization"], "The session token was not attached")
}

func TestFetchTableBadStatus(t *testing.T) {
	mock := &MockClient{ResponseCode: 503}
	source := NewDataSource(mock, "http://proxy.test", "token")

	_, err := source.FetchTable(context.Background(), TableAgendaItems)
	assert.NotNil(t, err, "A 503 response did not surface an error")
}

func TestFetchTableBadBody(t *testing.T) {
	mock := &MockClient{Response: &Response{Code: 200, Body: []byte(`{"not":"an array"}`)}}
	source := NewDataSource(mock, "http://proxy.test", "token")

	_, err := source.FetchTable(context.Background(), TableSponsors)
	assert.NotNil(t, err, "A non-array body did not surface an error")
}

func TestFetchTableNetworkError(t *testing.T) {
	mock := &MockClient{ResponseError: errors.New("connection refused")}
	source := NewDataSource(mock, "http://proxy.test", "token")

	_, err := source.FetchTable(context.Background(), TableSponsors)
	assert.NotNil(t, err, "A network error did not surface")
}

func TestFetchTableExpiredSession(t *testing.T) {
	mock := &MockClient{Response: &Response{Code: 200, Body: []byte(`[]`)}}
	source := NewDataSource(mock, "http://proxy.test", signedToken(t, time.Now().Add(-time.Hour)))

	_, err := source.FetchTable(context.Background(), TableAttendees)
	assert.Equal(t, utilerrors.ErrProxySessionExpired, err, "An expired session token was not rejected")
	assert.Len(t, mock.Requests, 0, "A request was sent with an expired session token")

	// a fresh token goes through
	source.SetSessionToken(signedToken(t, time.Now().Add(time.Hour)))
	_, err = source.FetchTable(context.Background(), TableAttendees)
	assert.Nil(t, err, "A fresh session token was rejected")
}

func TestFetcherAdapter(t *testing.T) {
	mock := &MockClient{Response: &Response{Code: 200, Body: []byte(`[{"id":"n-1"}]`)}}
	source := NewDataSource(mock, "http://proxy.test", "token")

	fetch := source.Fetcher(TableAnnouncements)
	data, err := fetch(context.Background())
	assert.Nil(t, err, "There was an unexpected error from the fetcher")
	records := data.([]interface{})
	assert.Len(t, records, 1, "The fetcher returned the wrong records")
}
