package metadata

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func allowAll(string) error { return nil }

func newTestFetcher(opts ...FetcherOption) *HTTPFetcher {
	return NewHTTPFetcher(2*time.Second, zap.NewNop(), append([]FetcherOption{WithURLValidator(allowAll), WithDialGuard(allowAll)}, opts...)...)
}

func TestHTTPFetcher_Fetch(t *testing.T) {
	userAgents := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgents <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Gophers"><meta property="og:image" content="https://cdn.example/g.png"></head></html>`)
	}))
	defer srv.Close()

	md, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/abc")
	require.NoError(t, err)
	require.Equal(t, Metadata{Title: "Gophers", ImageURL: "https://cdn.example/g.png"}, md)
	require.Contains(t, <-userAgents, "Mozilla/5.0")
}

func TestHTTPFetcher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><head><title>Not here</title></head></html>`)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestHTTPFetcher_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Landed</title></head></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	md, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	require.Equal(t, "Landed", md.Title)
}

func TestHTTPFetcher_RedirectLoop(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path, http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL+"/loop")
	require.Error(t, err)
	require.Contains(t, err.Error(), "too many redirects")
}

func TestHTTPFetcher_RefusesGuardedURL(t *testing.T) {
	hits := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
	}))
	defer srv.Close()

	// The default guard refuses loopback addresses
	f := NewHTTPFetcher(time.Second, zap.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrURLNotAllowed)
	require.Empty(t, hits)
}

func TestHTTPFetcher_RefusesHostnameResolvingToLoopback(t *testing.T) {
	hits := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
	}))
	defer srv.Close()

	// The URL check passes the hostname; the dial guard sees the loopback address
	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	f := NewHTTPFetcher(time.Second, zap.NewNop(), WithURLValidator(allowAll))
	_, err = f.Fetch(context.Background(), "http://localhost:"+port+"/chat.whatsapp.com/abc")
	require.ErrorIs(t, err, ErrURLNotAllowed)
	require.Empty(t, hits)
}

func TestHTTPFetcher_DialGuardSeesResolvedAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Gophers</title></head></html>`)
	}))
	defer srv.Close()

	dialed := make(chan string, 4)
	guard := func(address string) error {
		select {
		case dialed <- address:
		default:
		}
		return nil
	}
	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	f := NewHTTPFetcher(time.Second, zap.NewNop(), WithURLValidator(allowAll), WithDialGuard(guard))
	md, err := f.Fetch(context.Background(), "http://localhost:"+port+"/")
	require.NoError(t, err)
	require.Equal(t, "Gophers", md.Title)

	address := <-dialed
	host, _, err := net.SplitHostPort(address)
	require.NoError(t, err)
	require.NotNil(t, net.ParseIP(host), "guard must receive an IP, got %q", address)
}

func TestHTTPFetcher_GuardsRedirectTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.1/internal", http.StatusFound)
	}))
	defer srv.Close()

	guard := func(u string) error {
		if strings.HasPrefix(u, srv.URL) {
			return nil
		}
		return ValidateURL(u)
	}
	f := NewHTTPFetcher(time.Second, zap.NewNop(), WithURLValidator(guard), WithDialGuard(allowAll))
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrURLNotAllowed)
}

func TestHTTPFetcher_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><head>")
		fmt.Fprint(w, strings.Repeat(" ", maxBodyBytes))
		fmt.Fprint(w, "<title>Too far</title></head></html>")
	}))
	defer srv.Close()

	_, err := newTestFetcher().Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrNoMetadata)
}

func TestHTTPFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50*time.Millisecond, zap.NewNop(), WithURLValidator(allowAll), WithDialGuard(allowAll))
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestRemoteHealthy(t *testing.T) {
	require.True(t, remoteHealthy(nil))
	require.True(t, remoteHealthy(ErrNoMetadata))
	require.True(t, remoteHealthy(fmt.Errorf("wrapped: %w", ErrURLNotAllowed)))
	require.True(t, remoteHealthy(&StatusError{StatusCode: http.StatusNotFound}))
	require.False(t, remoteHealthy(&StatusError{StatusCode: http.StatusBadGateway}))
	require.False(t, remoteHealthy(errors.New("connection refused")))
}
