// Package smsbroadcast is a client for the SMS Broadcast HTTP API.
//
// Inputs are validated before any request is made, requests are plain GETs
// against a single endpoint, and the gateway's line-oriented text replies are
// parsed into SendResult values or typed *Error values:
//
//	c := smsbroadcast.New("user", "pass", "MyBrand")
//	res, err := c.Send(ctx, "0412345678", "hello", smsbroadcast.WithRef("order42"))
//	if errors.Is(err, smsbroadcast.ErrInvalidNumber) {
//		// rejected locally, nothing was sent
//	}
//
// Transport failures are returned unchanged; use a custom Transport to
// control timeouts, proxies or retries.
package smsbroadcast
