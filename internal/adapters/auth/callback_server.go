package auth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/dubco-cli/internal/domain"
)

const DefaultCallbackPath = "/callback"

var ErrMissingState = errors.New("expected state is required")

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family: system-ui, sans-serif; text-align: center; padding-top: 4em;">
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

type callbackPageData struct {
	Title   string
	Message string
}

// CallbackServer accepts exactly one OAuth redirect. Later requests get a
// "gone" page and never replace the first result.
type CallbackServer struct {
	expectedState string
	path          string
	listener      net.Listener
	server        *http.Server
	resultCh      chan callbackResult
	resultOnce    sync.Once
	closeOnce     sync.Once
}

type callbackResult struct {
	code string
	err  error
}

func StartCallbackServer(listenAddr string, path string, expectedState string) (*CallbackServer, error) {
	if expectedState == "" {
		return nil, ErrMissingState
	}
	if listenAddr == "" {
		listenAddr = "127.0.0.1:0"
	}
	if path == "" {
		path = DefaultCallbackPath
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen callback server on %s: %w", listenAddr, err)
	}

	cb := &CallbackServer{
		expectedState: expectedState,
		path:          path,
		listener:      listener,
		resultCh:      make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, cb.handleCallback)

	cb.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if serveErr := cb.server.Serve(cb.listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			cb.trySendResult(callbackResult{err: serveErr})
		}
	}()

	return cb, nil
}

func (c *CallbackServer) RedirectURI() string {
	if tcpAddr, ok := c.listener.Addr().(*net.TCPAddr); ok {
		return fmt.Sprintf("http://localhost:%d%s", tcpAddr.Port, c.path)
	}
	return "http://localhost" + c.path
}

// WaitForCode blocks until the redirect arrives, the timeout elapses or ctx
// is done. The server is closed before it returns in every case.
func (c *CallbackServer) WaitForCode(ctx context.Context, timeout time.Duration) (string, error) {
	defer c.Close()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-c.resultCh:
		return result.code, result.err
	case <-timer.C:
		return "", domain.ErrLoginTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *CallbackServer) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		closeErr = c.server.Close()
	})
	return closeErr
}

func (c *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var result callbackResult
	switch {
	case query.Get("state") != c.expectedState:
		result.err = domain.ErrStateMismatch
	case query.Get("error") != "":
		result.err = &domain.AuthProtocolError{
			Kind:        domain.ErrTokenExchange,
			Code:        query.Get("error"),
			Description: query.Get("error_description"),
		}
	case query.Get("code") == "":
		result.err = &domain.AuthProtocolError{
			Kind:        domain.ErrTokenExchange,
			Description: "authorization code missing from callback",
		}
	default:
		result.code = query.Get("code")
	}

	if !c.trySendResult(result) {
		writeCallbackPage(w, http.StatusGone, "Login already handled", "This login attempt has already completed. You can close this window.")
		return
	}

	if result.err != nil {
		writeCallbackPage(w, http.StatusBadRequest, "Authentication failed", result.err.Error())
		return
	}

	writeCallbackPage(w, http.StatusOK, "Authentication complete", "You can close this window and return to the terminal.")
}

func (c *CallbackServer) trySendResult(result callbackResult) bool {
	sent := false
	c.resultOnce.Do(func() {
		c.resultCh <- result
		sent = true
	})
	return sent
}

func writeCallbackPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, callbackPageData{Title: title, Message: message})
}
