package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators registers console-specific validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	// app_route: a rooted in-app path ("/app"), never scheme-relative.
	if err := v.RegisterValidation("app_route", validateAppRoute); err != nil {
		return fmt.Errorf("failed to register app_route validator: %w", err)
	}
	return nil
}

// validateAppRoute validates an in-app route field.
// Valid values start with exactly one "/": "//host" is scheme-relative
// and would escape the app.
func validateAppRoute(fl validator.FieldLevel) bool {
	route := fl.Field().String()
	return strings.HasPrefix(route, "/") && !strings.HasPrefix(route, "//")
}

// Validate validates the Config using struct tags and custom cross-field
// rules. Returns an error with actionable messages on failure.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateLoginURLAllowed(); err != nil {
		return err
	}

	if _, err := c.APITimeout(); err != nil {
		return err
	}
	if _, err := c.ProbeBackoff(); err != nil {
		return err
	}

	return nil
}

// validateLoginURLAllowed ensures the cross-host login URL points at an
// allowed domain. A login URL the sanitizer itself would reject means
// every expiry redirect would collapse to the fallback route.
func (c *Config) validateLoginURLAllowed() error {
	u, err := url.Parse(c.Session.LoginURL)
	if err != nil {
		return fmt.Errorf("session.login_url is not a valid URL: %w", err)
	}

	h := strings.ToLower(u.Hostname())
	for _, domain := range c.Redirect.AllowedDomains {
		d := strings.ToLower(domain)
		if h == d || strings.HasSuffix(h, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("session.login_url host %q is not covered by redirect.allowed_domains", h)
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "fqdn":
		return fmt.Sprintf("%s must be a valid domain name", field)
	case "app_route":
		return fmt.Sprintf("%s must be a rooted path like \"/app\"", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
