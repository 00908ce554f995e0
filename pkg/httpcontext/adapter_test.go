package httpcontext

import (
	"testing"
	"time"

	"github.com/valyala/fasthttp"
)

func TestAttachCarriesRequestMetadata(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Request-ID", "req-42")
	ctx.Request.Header.SetUserAgent("tests/1.0")
	SetIdentity(&ctx, "alice", "s1")

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != "req-42" {
		t.Fatalf("response request id = %q", got)
	}
	if _, ok := stdCtx.Deadline(); !ok {
		t.Fatalf("expected deadline on attached context")
	}
	if got, _ := stdCtx.Value(KeySessionID).(string); got != "s1" {
		t.Fatalf("session id = %q", got)
	}
	if got, _ := stdCtx.Value(KeyUserAgent).(string); got != "tests/1.0" {
		t.Fatalf("user agent = %q", got)
	}
	if UserID(&ctx) != "alice" {
		t.Fatalf("user id not kept on request")
	}
}

func TestAttachGeneratesRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx

	_, cancel := NewAdapter(0).Attach(&ctx)
	defer cancel()

	if len(ctx.Response.Header.Peek("X-Request-ID")) == 0 {
		t.Fatalf("expected generated request id")
	}
	if UserID(&ctx) != "" {
		t.Fatalf("anonymous request should have no user id")
	}
}
