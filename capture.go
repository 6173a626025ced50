package smsbroadcast

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
)

// CaptureTransport records every request and answers from a queue of canned
// replies. It is meant for tests.
type CaptureTransport struct {
	mu      sync.Mutex
	Calls   []CaptureCall
	replies []captureReply
}

// CaptureCall records a single Get invocation.
type CaptureCall struct {
	Endpoint string
	Params   url.Values
}

type captureReply struct {
	resp *Response
	err  error
}

// ErrNoReply is returned when a request arrives with nothing queued.
var ErrNoReply = errors.New("smsbroadcast: capture transport has no queued reply")

// Reply queues a 200 response with the given body.
func (c *CaptureTransport) Reply(body string) *CaptureTransport {
	return c.ReplyStatus(http.StatusOK, body)
}

// ReplyStatus queues a response with an explicit status code.
func (c *CaptureTransport) ReplyStatus(status int, body string) *CaptureTransport {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, captureReply{resp: &Response{StatusCode: status, Body: []byte(body)}})
	return c
}

// Fail queues a transport error.
func (c *CaptureTransport) Fail(err error) *CaptureTransport {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, captureReply{err: err})
	return c
}

func (c *CaptureTransport) Get(_ context.Context, endpoint string, params url.Values) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = append(c.Calls, CaptureCall{Endpoint: endpoint, Params: params})
	if len(c.replies) == 0 {
		return nil, ErrNoReply
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r.resp, r.err
}

// LastCall returns the most recent request, or false when none was made.
func (c *CaptureTransport) LastCall() (CaptureCall, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Calls) == 0 {
		return CaptureCall{}, false
	}
	return c.Calls[len(c.Calls)-1], true
}

// Reset clears recorded calls and pending replies.
func (c *CaptureTransport) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Calls = nil
	c.replies = nil
}
