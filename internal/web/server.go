// Package web serves the status page and pairing QR artifacts over HTTP,
// for deployments where the bot's terminal is not reachable.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Server hosts the status page, /qr.png and /qr.txt.
type Server struct {
	port      int
	publicDir string
	log       waLog.Logger
}

// NewServer creates a new Server.
func NewServer(port int, publicDir string, log waLog.Logger) *Server {
	return &Server{
		port:      port,
		publicDir: publicDir,
		log:       log.Sub("Web"),
	}
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleIndex)
	router.GET("/qr.png", s.handleQRImage)
	router.GET("/qr.txt", s.handleQRText)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Web server listening on port %d", s.port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, statusPage)
}

func (s *Server) handleQRImage(c *gin.Context) {
	path := filepath.Join(s.publicDir, "qrcode.png")
	if _, err := os.Stat(path); err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.File(path)
}

func (s *Server) handleQRText(c *gin.Context) {
	path := filepath.Join(s.publicDir, "qrcode.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

const statusPage = `<!DOCTYPE html>
<html>
<head>
    <title>Warden Bot</title>
    <style>
        body {
            background: #000;
            color: #ff0000;
            font-family: 'Courier New', monospace;
            padding: 20px;
            text-align: center;
            margin: 0;
            min-height: 100vh;
            display: flex;
            justify-content: center;
            align-items: center;
        }
        .container {
            background: #1a1a1a;
            padding: 40px;
            border-radius: 20px;
            border: 2px solid #ff0000;
            max-width: 600px;
            width: 90%;
        }
        h1 { color: #ff0000; font-size: 3em; margin-bottom: 10px; }
        .status {
            background: #00aa00;
            color: white;
            padding: 10px;
            border-radius: 10px;
            margin: 20px 0;
            font-size: 1.2em;
        }
        .qr-box {
            background: white;
            padding: 20px;
            border-radius: 10px;
            margin: 20px 0;
            display: inline-block;
        }
        .qr-link {
            display: inline-block;
            background: #ff0000;
            color: white;
            padding: 15px 30px;
            border-radius: 10px;
            text-decoration: none;
            font-size: 1.2em;
            margin: 10px;
        }
        .qr-link:hover { background: #ff4444; }
    </style>
</head>
<body>
    <div class="container">
        <h1>🤖 Warden Bot</h1>
        <div class="status">✅ BOT IS RUNNING 24/7</div>

        <h2>📱 SCAN QR CODE TO CONNECT</h2>

        <div class="qr-box">
            <img src="/qr.png" alt="QR Code" style="max-width: 300px;" id="qrImage">
        </div>

        <div>
            <a href="/qr.png" class="qr-link" download>📥 Download QR</a>
            <a href="/qr.txt" class="qr-link" target="_blank">📋 View Text</a>
        </div>

        <div style="margin: 20px 0; color: #ccc; text-align: left;">
            <h3>📋 Instructions:</h3>
            <ol style="line-height: 2;">
                <li>Open WhatsApp on your phone</li>
                <li>Go to Linked Devices</li>
                <li>Tap "Link a Device"</li>
                <li>Scan the QR code above</li>
            </ol>
        </div>

        <script>
            setInterval(() => {
                document.getElementById('qrImage').src = '/qr.png?' + new Date().getTime();
            }, 30000);
        </script>
    </div>
</body>
</html>`
