package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// DownloadFile fetches the resource at uri and stores it at dst. The transfer
// progress is rendered on w, unless w is nil. The destination is only created
// once the whole body has been received.
func DownloadFile(ctx context.Context, uri, dst string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("invalid download request for %s: %w", uri, err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("unable to download file from URI: %s: %w", uri, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unable to download file from URI: %s, status %v", uri, res.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create the destination folder: %w", err)
	}
	tmpfile, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	defer os.Remove(tmpfile.Name())

	var body io.Reader = res.Body
	if w != nil {
		bar := progressbar.NewOptions64(res.ContentLength,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Downloading "+filepath.Base(dst)),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		reader := progressbar.NewReader(res.Body, bar)
		body = &reader
	}

	if _, err := io.Copy(tmpfile, body); err != nil {
		tmpfile.Close()
		return fmt.Errorf("unable to copy the source URI into the destination file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return err
	}
	return os.Rename(tmpfile.Name(), dst)
}

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// DetectContentType detects the file type by reading MIME type information of the file content.
func DetectContentType(fname string) (string, error) {
	file, err := os.Open(fname)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("could not close the opened file: %v", err)
		}
	}()

	// Only the first 512 bytes are used to sniff the content type.
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(buffer[:n]), nil
}
