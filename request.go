package smsbroadcast

import (
	"net/url"
	"strconv"
	"strings"
)

// sendParams builds the query for a send. The request must already be valid.
func sendParams(username, password string, req *SendRequest) url.Values {
	q := url.Values{}
	q.Set("username", username)
	q.Set("password", password)
	q.Set("to", strings.Join(req.To, ","))
	q.Set("from", req.Sender)
	q.Set("message", req.Message)
	if req.Ref != "" {
		q.Set("ref", req.Ref)
	}
	q.Set("maxsplit", strconv.Itoa(req.MaxSplit))
	return q
}

func balanceParams(username, password string) url.Values {
	q := url.Values{}
	q.Set("action", "balance")
	q.Set("username", username)
	q.Set("password", password)
	return q
}
