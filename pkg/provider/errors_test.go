package provider

import (
	"errors"
	"testing"
)

func TestIsPermanentAuthKind(t *testing.T) {
	err := &Error{Kind: KindAuth, Provider: "p1", Msg: "api key not configured"}
	if !IsPermanent(err) {
		t.Error("auth kind should be permanent")
	}
}

func TestIsPermanentByStatus(t *testing.T) {
	for _, status := range []int{401, 403} {
		err := &Error{Kind: KindTransient, Provider: "p1", Status: status, Msg: "denied"}
		if !IsPermanent(err) {
			t.Errorf("status %d should be permanent", status)
		}
	}
}

func TestIsPermanentByMessage(t *testing.T) {
	cases := []string{
		"Invalid API key provided",
		"request unauthorized",
		"authentication failed upstream",
	}
	for _, msg := range cases {
		if !IsPermanent(errors.New(msg)) {
			t.Errorf("%q should be permanent", msg)
		}
	}
}

func TestTransientNotPermanent(t *testing.T) {
	cases := []error{
		&Error{Kind: KindTransient, Provider: "p1", Status: 500, Msg: "internal error"},
		&Error{Kind: KindRateLimited, Provider: "p1", Status: 429, Msg: "rate limit exceeded"},
		&Error{Kind: KindTimeout, Provider: "p1", Msg: "request timed out"},
		errors.New("connection reset by peer"),
	}
	for _, err := range cases {
		if IsPermanent(err) {
			t.Errorf("%v should be transient", err)
		}
	}
}

func TestClassifyStatus(t *testing.T) {
	if classifyStatus(401) != KindAuth {
		t.Error("401 should classify as auth")
	}
	if classifyStatus(429) != KindRateLimited {
		t.Error("429 should classify as rate limited")
	}
	if classifyStatus(503) != KindTransient {
		t.Error("503 should classify as transient")
	}
}
