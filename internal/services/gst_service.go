package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// GSTIN format: 2-digit state code, PAN, entity number, 'Z', checksum.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// IsValidGSTIN reports whether gstin matches the standard format.
func IsValidGSTIN(gstin string) bool {
	return gstinPattern.MatchString(strings.ToUpper(gstin))
}

// GSTINResult is the validator API's verdict.
type GSTINResult struct {
	GSTIN string `json:"gstin"`
	Valid bool   `json:"valid"`
	State string `json:"state"`
	PAN   string `json:"pan"`
}

// GSTService validates GSTINs against the RapidAPI india-gstin-validator.
type GSTService struct {
	host       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGSTService constructs a GSTService.
func NewGSTService(host, apiKey string) *GSTService {
	return &GSTService{
		host:       host,
		apiKey:     apiKey,
		baseURL:    "https://" + host,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Validate asks the external validator about gstin. The format should be
// checked with IsValidGSTIN first; this call spends API quota.
func (s *GSTService) Validate(ctx context.Context, gstin string) (*GSTINResult, error) {
	endpoint := fmt.Sprintf("%s/validate?gstin=%s", s.baseURL, strings.ToUpper(gstin))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("gst request build: %w", err)
	}
	req.Header.Set("x-rapidapi-key", s.apiKey)
	req.Header.Set("x-rapidapi-host", s.host)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gst request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gst validation: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result GSTINResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("gst validation unmarshal: %w", err)
	}
	return &result, nil
}
