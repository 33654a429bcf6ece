package api

import (
	"context"
)

// MockClient - use for mocking the HTTP client
type MockClient struct {
	Client
	Response      *Response // this for if you want to set your own dummy response
	ResponseCode  int       // this for if only care about a particular response code
	ResponseError error
	Requests      []Request // every request that was sent
}

// Send -
func (c *MockClient) Send(ctx context.Context, request Request) (*Response, error) {
	c.Requests = append(c.Requests, request)
	if c.ResponseError != nil {
		return nil, c.ResponseError
	}
	if c.ResponseCode != 0 {
		return &Response{
			Code: c.ResponseCode,
		}, nil
	}
	if c.Response != nil {
		return c.Response, nil
	}
	return nil, nil
}
