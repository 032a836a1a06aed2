// Package auth handles the QR pairing flow for linking the bot device.
package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// QRHandler displays pairing QR codes in the terminal and mirrors them to
// the public directory so the web status page can serve them.
type QRHandler struct {
	publicDir string
	log       waLog.Logger
}

// NewQRHandler creates a new QRHandler.
func NewQRHandler(publicDir string, log waLog.Logger) *QRHandler {
	return &QRHandler{
		publicDir: publicDir,
		log:       log.Sub("QR"),
	}
}

// HandleQRChannel processes QR channel items until pairing resolves.
func (h *QRHandler) HandleQRChannel(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-qrChan:
			if !ok {
				return nil
			}
			switch item.Event {
			case "code":
				h.log.Infof("Scan the QR code below with WhatsApp (Linked Devices)")
				h.displayQR(item.Code)
				h.publishQR(item.Code)
			case "timeout":
				h.log.Warnf("QR code timeout - please restart to get a new QR code")
				return fmt.Errorf("QR code timeout")
			case "success":
				h.log.Infof("Successfully paired!")
				h.cleanup()
				return nil
			case "error":
				h.log.Errorf("QR error: %v", item.Error)
				return item.Error
			}
		}
	}
}

// displayQR renders the QR code as terminal ASCII art.
func (h *QRHandler) displayQR(code string) {
	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		h.log.Errorf("Failed to generate QR code: %v", err)
		fmt.Println("QR Code content:", code)
		return
	}

	fmt.Println()
	fmt.Println(qr.ToSmallString(false))
	fmt.Println()
}

// publishQR writes qrcode.png and qrcode.txt for the status page.
func (h *QRHandler) publishQR(code string) {
	if err := os.MkdirAll(h.publicDir, 0755); err != nil {
		h.log.Errorf("Failed to create public dir: %v", err)
		return
	}

	pngPath := filepath.Join(h.publicDir, "qrcode.png")
	if err := qrcode.WriteFile(code, qrcode.Medium, 400, pngPath); err != nil {
		h.log.Errorf("Failed to save QR code: %v", err)
		return
	}
	txtPath := filepath.Join(h.publicDir, "qrcode.txt")
	if err := os.WriteFile(txtPath, []byte(code), 0644); err != nil {
		h.log.Errorf("Failed to save QR text: %v", err)
		return
	}
	h.log.Infof("QR code saved to %s", pngPath)
}

// cleanup removes published QR artifacts once pairing succeeds.
func (h *QRHandler) cleanup() {
	os.Remove(filepath.Join(h.publicDir, "qrcode.png"))
	os.Remove(filepath.Join(h.publicDir, "qrcode.txt"))
}
