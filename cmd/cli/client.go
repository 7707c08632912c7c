package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// envelope mirrors the server response body.
type envelope struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// apiClient talks to the HTTP API.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(addr string) *apiClient {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return &apiClient{base: strings.TrimRight(addr, "/"), http: &http.Client{Timeout: 60 * time.Second}}
}

func (c *apiClient) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &env, nil
}

func (c *apiClient) ping(ctx context.Context) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/ping", nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *apiClient) postJSON(ctx context.Context, path string, v any) (*envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// postMultipart sends fields and one face_image part per file path.
func (c *apiClient) postMultipart(ctx context.Context, path string, fields map[string]string, files []string) (*envelope, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		fw, err := mw.CreateFormFile("face_image", filepath.Base(p))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *apiClient) register(ctx context.Context, name, phone, cc string, images []string) (*envelope, error) {
	return c.postMultipart(ctx, "/register", map[string]string{
		"full_name":    name,
		"phone_number": phone,
		"country_code": cc,
	}, images)
}

func (c *apiClient) verifyImage(ctx context.Context, phone, cc, image string) (*envelope, error) {
	return c.postMultipart(ctx, "/verify-image", map[string]string{
		"phone_number": phone,
		"country_code": cc,
	}, []string{image})
}

func (c *apiClient) verifyOTP(ctx context.Context, phone, cc string, otp int) (*envelope, error) {
	return c.postJSON(ctx, "/verify-otp", map[string]any{
		"phone_number": phone,
		"country_code": cc,
		"otp":          otp,
	})
}

func (c *apiClient) resendOTP(ctx context.Context, phone, cc string) (*envelope, error) {
	return c.postJSON(ctx, "/resend-otp", map[string]string{
		"phone_number": phone,
		"country_code": cc,
	})
}
