// Package media implements the external media search and download client
// (YouTube search plus MP3 conversion via RapidAPI).
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"

	"warden-bot/internal/utils/retry"
)

// Video is the structured metadata returned by a search.
type Video struct {
	ID        string
	Title     string
	Channel   string
	Duration  string
	Views     string
	Published string
	Thumbnail string
	URL       string
}

// Audio is a downloaded audio blob.
type Audio struct {
	Data     []byte
	Filename string
	Title    string
}

// Config holds the RapidAPI credentials and hosts.
type Config struct {
	APIKey     string
	SearchHost string
	MP3Host    string
}

// Client talks to the RapidAPI YouTube endpoints.
type Client struct {
	http *http.Client
	cfg  Config
	log  waLog.Logger
}

// NewClient creates a media Client.
func NewClient(cfg Config, log waLog.Logger) *Client {
	return &Client{
		http: &http.Client{Timeout: 60 * time.Second},
		cfg:  cfg,
		log:  log.Sub("Media"),
	}
}

type searchResponse struct {
	Contents []struct {
		Video *struct {
			VideoID       string `json:"videoId"`
			Title         string `json:"title"`
			Author        string `json:"author"`
			LengthText    string `json:"lengthText"`
			ViewCountText string `json:"viewCountText"`
			PublishedTime string `json:"publishedTimeText"`
			Thumbnails    []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"video"`
	} `json:"contents"`
}

// Search looks up the best video match for a query. Returns (nil, nil) when
// the search succeeds but finds nothing.
func (c *Client) Search(ctx context.Context, query string) (*Video, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://"+c.cfg.SearchHost+"/search", nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("type", "v")
	req.URL.RawQuery = q.Encode()
	c.sign(req, c.cfg.SearchHost)

	var body searchResponse
	if err := c.getJSON(req, &body); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	for _, item := range body.Contents {
		v := item.Video
		if v == nil || v.VideoID == "" {
			continue
		}
		video := &Video{
			ID:        v.VideoID,
			Title:     v.Title,
			Channel:   orNA(v.Author),
			Duration:  orNA(v.LengthText),
			Views:     orNA(v.ViewCountText),
			Published: orNA(v.PublishedTime),
			URL:       "https://youtube.com/watch?v=" + v.VideoID,
		}
		if len(v.Thumbnails) > 0 {
			video.Thumbnail = v.Thumbnails[0].URL
		}
		return video, nil
	}
	return nil, nil
}

type convertResponse struct {
	Status string `json:"status"`
	Link   string `json:"link"`
	Title  string `json:"title"`
}

// FetchAudio converts a video to MP3 and downloads the result.
func (c *Client) FetchAudio(ctx context.Context, videoID string) (*Audio, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://"+c.cfg.MP3Host+"/dl", nil)
	if err != nil {
		return nil, fmt.Errorf("build convert request: %w", err)
	}
	q := req.URL.Query()
	q.Set("id", videoID)
	req.URL.RawQuery = q.Encode()
	c.sign(req, c.cfg.MP3Host)

	var conv convertResponse
	if err := c.getJSON(req, &conv); err != nil {
		return nil, fmt.Errorf("convert %s: %w", videoID, err)
	}
	if conv.Status != "ok" || conv.Link == "" {
		return nil, fmt.Errorf("convert %s: no download link (status %q)", videoID, conv.Status)
	}

	data, err := retry.Do(ctx, func() ([]byte, error) {
		return c.fetchBytes(ctx, conv.Link)
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", videoID, err)
	}

	return &Audio{
		Data:     data,
		Filename: sanitizeFilename(conv.Title) + ".mp3",
		Title:    conv.Title,
	}, nil
}

// FetchImage downloads an image (thumbnail, profile picture) over HTTP.
// Failures degrade to nil; callers omit the image.
func (c *Client) FetchImage(ctx context.Context, url string) []byte {
	if url == "" {
		return nil
	}
	data, err := c.fetchBytes(ctx, url)
	if err != nil {
		c.log.Warnf("Failed to fetch image %s: %v", url, err)
		return nil
	}
	return data
}

func (c *Client) sign(req *http.Request, host string) {
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", host)
}

func (c *Client) getJSON(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var unsafeFilename = regexp.MustCompile(`[^\w\s-]`)

func sanitizeFilename(title string) string {
	cleaned := unsafeFilename.ReplaceAllString(title, "")
	cleaned = strings.Join(strings.Fields(cleaned), "_")
	if cleaned == "" {
		return "audio"
	}
	return cleaned
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
