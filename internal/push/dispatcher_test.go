package push

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ZenSolar/zensolar-sub004/internal/errs"
	"github.com/ZenSolar/zensolar-sub004/internal/model"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(2*time.Second, 43200, "normal", zap.NewNop())
}

func TestSend_SuccessAndHeaders(t *testing.T) {
	t.Parallel()
	var gotHeaders http.Header
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	d := newTestDispatcher()
	sub := model.Subscription{Endpoint: srv.URL}
	out := d.Send(context.Background(), sub, []byte{0xde, 0xad}, "vapid t=abc, k=def")

	if out.Class != model.OutcomeSuccess {
		t.Fatalf("class=%s, want success", out.Class)
	}
	if out.StatusCode != http.StatusCreated {
		t.Fatalf("status=%d", out.StatusCode)
	}
	if got := gotHeaders.Get("Content-Encoding"); got != "aes128gcm" {
		t.Fatalf("Content-Encoding=%q", got)
	}
	if got := gotHeaders.Get("TTL"); got != "43200" {
		t.Fatalf("TTL=%q", got)
	}
	if got := gotHeaders.Get("Urgency"); got != "normal" {
		t.Fatalf("Urgency=%q", got)
	}
	if got := gotHeaders.Get("Authorization"); got != "vapid t=abc, k=def" {
		t.Fatalf("Authorization=%q", got)
	}
	if string(gotBody) != "\xde\xad" {
		t.Fatalf("body=%x", gotBody)
	}
}

func TestSend_Classification(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		want   model.OutcomeClass
	}{
		{http.StatusOK, model.OutcomeSuccess},
		{http.StatusCreated, model.OutcomeSuccess},
		{http.StatusNotFound, model.OutcomeExpired},
		{http.StatusGone, model.OutcomeExpired},
		{http.StatusBadRequest, model.OutcomeOther},
		{http.StatusTooManyRequests, model.OutcomeOther},
		{http.StatusInternalServerError, model.OutcomeOther},
	}
	for _, c := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(c.status)
			_, _ = w.Write([]byte("details"))
		}))
		d := newTestDispatcher()
		out := d.Send(context.Background(), model.Subscription{Endpoint: srv.URL}, nil, "")
		srv.Close()

		if out.Class != c.want {
			t.Fatalf("status %d: class=%s, want %s", c.status, out.Class, c.want)
		}
		if out.StatusCode != c.status {
			t.Fatalf("status %d not recorded: %d", c.status, out.StatusCode)
		}
		if c.want == model.OutcomeOther && out.Detail != "details" {
			t.Fatalf("status %d: detail=%q", c.status, out.Detail)
		}
		switch c.want {
		case model.OutcomeSuccess:
			if out.Err() != nil {
				t.Fatalf("status %d: Err()=%v, want nil", c.status, out.Err())
			}
		case model.OutcomeExpired:
			if !errors.Is(out.Err(), errs.ErrSubscriptionExpired) {
				t.Fatalf("status %d: Err()=%v", c.status, out.Err())
			}
		default:
			if !errors.Is(out.Err(), errs.ErrTransientDelivery) {
				t.Fatalf("status %d: Err()=%v", c.status, out.Err())
			}
		}
	}
}

func TestSend_NetworkFailure(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	out := d.Send(context.Background(), model.Subscription{Endpoint: srv.URL}, nil, "")
	if out.Class != model.OutcomeOther {
		t.Fatalf("class=%s, want other", out.Class)
	}
	if out.StatusCode != 0 || out.Detail == "" {
		t.Fatalf("network failure must keep status 0 and a detail: %+v", out)
	}
}

func TestSend_Timeout(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	d := NewDispatcher(50*time.Millisecond, 60, "low", zap.NewNop())
	out := d.Send(context.Background(), model.Subscription{Endpoint: srv.URL}, nil, "")
	if out.Class != model.OutcomeOther {
		t.Fatalf("timeout must classify as other, got %s", out.Class)
	}
}
