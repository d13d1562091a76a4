package mdexport

import (
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

// webServer is the ephemeral static file server backing one Converter
// instance. It binds localhost on an OS-assigned free port, serves
// files rooted at the workspace directory, and adds permissive CORS
// headers on every response. The port must not be assumed stable
// across runs.
type webServer struct {
	root     string
	port     int
	listener net.Listener
	server   *http.Server
}

// startWebServer binds a free port and begins serving immediately.
func startWebServer(root string) (*webServer, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServerStart, err)
	}

	router := chi.NewRouter()
	router.Use(cors.AllowAll().Handler)
	// http.FileServer keeps extensions intact; rendered pages are
	// addressed as "<relative path>.html" and assets by real path.
	router.Handle("/*", http.FileServer(http.Dir(root)))

	ws := &webServer{
		root:     root,
		port:     listener.Addr().(*net.TCPAddr).Port,
		listener: listener,
		server:   &http.Server{Handler: router},
	}

	go func() {
		// ErrServerClosed is the normal shutdown signal.
		_ = ws.server.Serve(listener)
	}()

	return ws, nil
}

// Close stops the server and waits for the listener to be released.
func (ws *webServer) Close() error {
	return ws.server.Close()
}
