package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	dir := flag.String("dir", "testdata", "Directory containing CSV/JSON captures to upload (ignored if -file is set)")
	file := flag.String("file", "", "Single capture file to upload (overrides -dir)")
	endpoint := flag.String("url", "http://localhost:5000/api/netshield/analyze-file", "Analysis endpoint")
	token := flag.String("token", "", "Optional bearer token so uploads are attributed to an account")
	delay := flag.Duration("delay", 2*time.Second, "Delay between uploads when using -dir")
	flag.Parse()

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		log.Fatalf("failed to resolve files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no capture files found (file=%s dir=%s)", *file, *dir)
	}

	fmt.Printf("Uploading %d capture(s) to %s\n\n", len(files), *endpoint)
	for idx, path := range files {
		if err := uploadCapture(path, *endpoint, *token); err != nil {
			log.Printf("upload failed for %s: %v\n", path, err)
		}

		if idx < len(files)-1 && *delay > 0 {
			time.Sleep(*delay)
		}
	}
}

func resolveFiles(single, dir string) ([]string, error) {
	if single != "" {
		return []string{single}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".csv" && ext != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func uploadCapture(path, endpoint, token string) error {
	fmt.Printf("→ %s\n", filepath.Base(path))

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read capture: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(raw); err != nil {
		return fmt.Errorf("write form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post analysis request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	fmt.Printf("  %s\n\n", strings.TrimSpace(string(respBody)))
	return nil
}
