package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/devotee-memorial/backend/internal/models"
)

const cloudinaryAPIBase = "https://api.cloudinary.com/v1_1/"

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	// Endpoint overrides the API base URL including the cloud name.
	Endpoint string
	Timeout  time.Duration
}

// CloudinaryHost uploads through Cloudinary's signed REST API.
type CloudinaryHost struct {
	client    *resty.Client
	apiKey    string
	apiSecret string
	now       func() time.Time
}

type cloudinaryUploadResponse struct {
	PublicID     string `json:"public_id"`
	SecureURL    string `json:"secure_url"`
	URL          string `json:"url"`
	ResourceType string `json:"resource_type"`
	Bytes        int64  `json:"bytes"`
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
}

type cloudinaryErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinaryHost(cfg CloudinaryConfig) *CloudinaryHost {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = cloudinaryAPIBase + cfg.CloudName
	}
	client := resty.New().SetBaseURL(strings.TrimRight(endpoint, "/"))
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &CloudinaryHost{
		client:    client,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		now:       time.Now,
	}
}

func (h *CloudinaryHost) Upload(ctx context.Context, localPath, folder string, kind ResourceKind) (*models.MediaUploadResult, error) {
	resourceType, err := cloudinaryResourceType(kind)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(h.now().Unix(), 10),
	}
	if folder != "" {
		params["folder"] = folder
	}
	if kind == KindImage {
		params["transformation"] = "q_auto,f_auto"
	}
	params["signature"] = h.sign(params)
	params["api_key"] = h.apiKey

	var out cloudinaryUploadResponse
	var apiErr cloudinaryErrorResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetFile("file", localPath).
		SetFormData(params).
		SetResult(&out).
		SetError(&apiErr).
		Post("/" + resourceType + "/upload")
	if err != nil {
		return nil, fmt.Errorf("cloudinary: upload: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cloudinary: upload http %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	url := out.SecureURL
	if url == "" {
		url = out.URL
	}
	if url == "" {
		return nil, fmt.Errorf("cloudinary: upload response without url")
	}
	return &models.MediaUploadResult{
		URL:          url,
		PublicID:     out.PublicID,
		ResourceType: out.ResourceType,
		Bytes:        out.Bytes,
	}, nil
}

func (h *CloudinaryHost) Delete(ctx context.Context, publicID string, kind ResourceKind) error {
	resourceType, err := cloudinaryResourceType(kind)
	if err != nil {
		return err
	}
	if resourceType == "auto" {
		resourceType = "image"
	}

	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(h.now().Unix(), 10),
	}
	params["signature"] = h.sign(params)
	params["api_key"] = h.apiKey

	var out cloudinaryDestroyResponse
	var apiErr cloudinaryErrorResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetFormData(params).
		SetResult(&out).
		SetError(&apiErr).
		Post("/" + resourceType + "/destroy")
	if err != nil {
		return fmt.Errorf("cloudinary: destroy: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("cloudinary: destroy http %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("cloudinary: destroy result %q", out.Result)
	}
	return nil
}

// sign computes the request signature: parameters sorted by name, joined as
// k=v pairs with '&', followed by the API secret, SHA-1 hex encoded.
func (h *CloudinaryHost) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		switch k {
		case "file", "api_key", "resource_type", "cloud_name", "signature":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + h.apiSecret))
	return hex.EncodeToString(sum[:])
}

func cloudinaryResourceType(kind ResourceKind) (string, error) {
	switch kind {
	case KindImage, KindVideo, KindAuto:
		return string(kind), nil
	case "":
		return string(KindAuto), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaKind, kind)
}
