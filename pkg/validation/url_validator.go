package validation

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "go-vision-assistant/internal/errors"
)

// URLValidator handles URL validation logic
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// Messages returned to the client when an image URL is rejected
const (
	MessageEmptyURL       = "Görsel adresi boş olamaz"
	MessageInvalidURL     = "Görsel adresi geçersiz"
	MessageSchemeRejected = "Görsel adresi http veya https olmalıdır"
	MessageMissingHost    = "Görsel adresinde sunucu bulunamadı"
	MessageHostRejected   = "Bu sunucudan görsel alınamaz"
)

// ValidateImageURL validates if the provided URL is acceptable for image processing
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError(MessageEmptyURL, nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError(MessageInvalidURL, err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError(MessageSchemeRejected, fmt.Errorf("scheme %q not allowed", parsedURL.Scheme))
	}

	if parsedURL.Hostname() == "" {
		return apperrors.NewValidationError(MessageMissingHost, nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError(MessageHostRejected, fmt.Errorf("host %q not allowed", parsedURL.Hostname()))
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
