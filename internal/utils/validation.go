package utils

import (
	"errors"
	"net/url"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidateWebhookURL accepts absolute http(s) URLs. An empty string
// clears the webhook and is valid.
func ValidateWebhookURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > 2048 {
		return errors.New("webhook_url is too long")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return errors.New("webhook_url must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("webhook_url must use http or https")
	}
	return nil
}
