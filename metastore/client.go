package metastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Uploader is the metadata-store boundary: it accepts a JSON document and
// returns a dereferenceable URI.
type Uploader interface {
	Upload(ctx context.Context, doc any) (string, error)
}

// TokenDocument is the off-chain JSON uploaded by the metadata update flow.
type TokenDocument struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Website     string `json:"website,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Telegram    string `json:"telegram,omitempty"`
}

// HTTPUploader posts documents to a pinning endpoint that responds with
// {"uri": "..."}.
type HTTPUploader struct {
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

func NewHTTPUploader(endpoint string, log zerolog.Logger) *HTTPUploader {
	return &HTTPUploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, doc any) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("metadata store returned %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URI == "" {
		return "", fmt.Errorf("metadata store returned empty uri")
	}

	u.log.Debug().Str("uri", out.URI).Msg("metadata document uploaded")
	return out.URI, nil
}
