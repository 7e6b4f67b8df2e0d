// Package fetch turns uploaded documents and web pages into plain text that
// can be used as trigger input or as a source for story extraction.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// maxDocumentBytes caps how much of a document or page is read.
const maxDocumentBytes = 10 << 20

// minPageText is the shortest readable text accepted from a web page.
const minPageText = 100

var (
	// ErrUnsupportedDocument is returned for file types that cannot be read.
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrNoContent is returned when a page has no extractable article text.
	ErrNoContent = errors.New("no extractable content")
)

// Document is the extracted text of a file or page.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// SupportedExtensions lists the file extensions ExtractReader accepts.
var SupportedExtensions = []string{".html", ".htm", ".txt", ".md", ".markdown", ".csv"}

// ExtractFile reads the document at path.
func ExtractFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()
	return ExtractReader(filepath.Base(path), f)
}

// ExtractReader reads a document whose type is derived from name. HTML goes
// through readability; text formats are returned as they are.
func ExtractReader(name string, r io.Reader) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	data, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var text string
	switch ext {
	case ".html", ".htm":
		text, err = readable(data, &url.URL{Scheme: "file", Path: "/" + name})
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", name, err)
		}
	case ".txt", ".md", ".markdown", ".csv":
		text = strings.TrimSpace(string(data))
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupportedDocument)
	}

	zap.S().Debugf("Extracted %d chars from %s", len(text), name)
	return &Document{Name: name, Text: text}, nil
}

func readable(data []byte, pageURL *url.URL) (string, error) {
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}

// StatusError reports a page that answered with an HTTP error.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Fetcher downloads web pages and extracts their article text.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher. A zero timeout selects 15 seconds.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{
		userAgent: "gtmcraft/1.0 (content research)",
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// FetchURL downloads rawURL and returns its readable text.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (*Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	text, err := readable(body, pageURL)
	if err != nil {
		zap.S().Debugf("Readability failed for %s: %v", rawURL, err)
		text = ""
	}
	if len(text) < minPageText {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNoContent)
	}

	zap.S().Infof("Fetched %d chars from %s", len(text), rawURL)
	return &Document{Name: pageURL.Host + pageURL.Path, Text: text}, nil
}
