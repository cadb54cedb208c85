// Package http provides the photo identification endpoint
package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"platewise/internal/modkit/httpkit"
	perr "platewise/internal/platform/errors"
	"platewise/internal/platform/net/http/bind"
	"platewise/internal/services/photo"
)

// maxImageBytes caps the decoded image size
const maxImageBytes = 3 << 20

// maxBodyBytes leaves headroom for base64 expansion plus the JSON wrapper
const maxBodyBytes = 5 << 20

// Pipeline is the photo decomposition port the handler calls
type Pipeline interface {
	Identify(ctx context.Context, imageB64, mimeType string) (photo.Result, error)
}

// Deps are the handler dependencies
type Deps struct {
	Pipeline Pipeline
}

type handlers struct {
	deps Deps
}

// Register mounts the photo routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	r.Post("/identify", httpkit.Handle(h.identify))
}

// IdentifyRequest carries one food photo
// swagger:model
type IdentifyRequest struct {
	Image    string `json:"image" validate:"required" example:"/9j/4AAQSkZJRg..."`
	MimeType string `json:"mime_type" validate:"omitempty,oneof=image/jpeg image/png image/webp" example:"image/jpeg"`
}

// IdentifyResponse is the per-item resolution result for one photo
type IdentifyResponse struct {
	Foods           []photo.ItemResult `json:"foods"`
	FailedFoods     []string           `json:"failed_foods,omitempty"`
	TotalIdentified int                `json:"total_identified" example:"3"`
	ResponseTimeMs  int64              `json:"response_time_ms" example:"2815"`
}

// swagger:route POST /photo/identify Photo photoIdentify
// @Summary Identify foods in a photo and resolve their nutrition
// @Tags Photo
// @Accept json
// @Produce json
// @Success 200 type IdentifyResponse ok
// @Failure 422 "every identified item failed realism validation"
// @Router /photo/identify [post]
func (h *handlers) identify(r *http.Request) httpkit.Response {
	start := time.Now()

	in, err := bind.ParseJSON[IdentifyRequest](r, bind.JSONOptions{MaxBytes: maxBodyBytes, DisallowUnknown: true})
	if err != nil {
		return httpkit.Error(err)
	}

	raw, mime, err := decodeImage(in.Image, in.MimeType)
	if err != nil {
		return httpkit.Error(err)
	}

	res, err := h.deps.Pipeline.Identify(r.Context(), raw, mime)
	if err != nil {
		return httpkit.Error(err)
	}

	var failed []string
	for i := range res.Foods {
		if res.Foods[i].Failed != "" {
			failed = append(failed, res.Foods[i].Name)
		}
	}

	return httpkit.OK(IdentifyResponse{
		Foods:           res.Foods,
		FailedFoods:     failed,
		TotalIdentified: res.TotalIdentified,
		ResponseTimeMs:  time.Since(start).Milliseconds(),
	})
}

// decodeImage validates the base64 payload and enforces the decoded size cap.
// A data URL prefix is tolerated and overrides the declared mime type
func decodeImage(image, mimeType string) (b64, mime string, err error) {
	b64 = strings.TrimSpace(image)
	mime = mimeType

	if strings.HasPrefix(b64, "data:") {
		head, rest, ok := strings.Cut(b64, ",")
		if !ok {
			return "", "", perr.Inputf("malformed data url")
		}
		b64 = rest
		head = strings.TrimPrefix(head, "data:")
		if m, _, _ := strings.Cut(head, ";"); m != "" {
			mime = m
		}
	}

	decoded, decErr := base64.StdEncoding.DecodeString(b64)
	if decErr != nil {
		return "", "", perr.Inputf("image is not valid base64")
	}
	if len(decoded) == 0 {
		return "", "", perr.Inputf("image is empty")
	}
	if len(decoded) > maxImageBytes {
		return "", "", perr.Inputf("image exceeds %d bytes decoded", maxImageBytes)
	}
	return b64, mime, nil
}
