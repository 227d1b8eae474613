package footage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Jdelg140/psychology-facts-bot/config"
	"github.com/Jdelg140/psychology-facts-bot/types"
)

// Candidate is one downloadable file returned by a catalog search
type Candidate struct {
	URI         string
	Width       int
	Height      int
	Quality     types.QualityTag
	DurationSec float64
}

// Catalog searches a stock-footage service
type Catalog interface {
	Search(ctx context.Context, query types.SearchQuery) ([]Candidate, error)
}

// PexelsCatalog queries the Pexels video search API
type PexelsCatalog struct {
	baseURL     string
	apiKey      string
	perPage     int
	orientation string
	httpClient  *http.Client
}

// NewPexelsCatalog creates a catalog client. Per-request timeouts come from
// the caller's context so the resolver can bound each query on its own.
func NewPexelsCatalog(cfg *config.Config, apiKey string) *PexelsCatalog {
	return &PexelsCatalog{
		baseURL:     strings.TrimRight(cfg.Footage.CatalogBaseURL, "/"),
		apiKey:      apiKey,
		perPage:     cfg.Footage.PerPage,
		orientation: cfg.Footage.Orientation,
		httpClient:  &http.Client{},
	}
}

type pexelsSearchResponse struct {
	Videos []struct {
		ID         int `json:"id"`
		Width      int `json:"width"`
		Height     int `json:"height"`
		Duration   int `json:"duration"`
		VideoFiles []struct {
			Quality  string `json:"quality"`
			FileType string `json:"file_type"`
			Width    int    `json:"width"`
			Height   int    `json:"height"`
			Link     string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Search runs one video search and flattens every mp4 file into candidates,
// keeping the catalog's ordering.
func (p *PexelsCatalog) Search(ctx context.Context, query types.SearchQuery) ([]Candidate, error) {
	params := url.Values{}
	params.Set("query", string(query))
	params.Set("per_page", strconv.Itoa(p.perPage))
	if p.orientation != "" {
		params.Set("orientation", p.orientation)
	}
	reqURL := p.baseURL + "/videos/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from Pexels", resp.StatusCode)
	}

	var result pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode Pexels response: %w", err)
	}

	var out []Candidate
	for _, v := range result.Videos {
		for _, f := range v.VideoFiles {
			if f.Link == "" || (f.FileType != "" && f.FileType != "video/mp4") {
				continue
			}
			out = append(out, Candidate{
				URI:         f.Link,
				Width:       f.Width,
				Height:      f.Height,
				Quality:     pexelsQuality(f.Quality),
				DurationSec: float64(v.Duration),
			})
		}
	}
	return out, nil
}

// pexelsQuality maps Pexels' labels onto the catalog-neutral tags
func pexelsQuality(q string) types.QualityTag {
	switch strings.ToLower(q) {
	case "uhd", "hd":
		return types.QualityHigh
	case "sd":
		return types.QualityStandard
	default:
		return types.QualityLow
	}
}
