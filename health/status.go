// Package health provides health and readiness reporting for the query
// engine and its store.
package health

import (
	"regexp"
	"strings"
	"time"
)

// Pre-compiled regexes for error message sanitization
var (
	httpURLRegex     = regexp.MustCompile(`https?://[^\s]+`)
	natsURLRegex     = regexp.MustCompile(`nats://[^\s]+`)
	unixPathRegex    = regexp.MustCompile(`/[a-zA-Z0-9/_.-]+`)
	windowsPathRegex = regexp.MustCompile(`[A-Z]:\\[^:\s]+`)
	ipAddrRegex      = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)
	portRegex        = regexp.MustCompile(`:\d{2,5}\b`)
	credentialRegex  = regexp.MustCompile(`(?i)(password|token|key|secret|credential)[^a-zA-Z]*[:=][^,\s}]+`)
)

// Status represents the health state of a component or the whole system.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"` // "healthy", "unhealthy", "degraded"
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// IsHealthy returns true if the status is healthy.
func (s Status) IsHealthy() bool {
	return s.Status == "healthy"
}

// IsDegraded returns true if the status is degraded.
func (s Status) IsDegraded() bool {
	return s.Status == "degraded"
}

// IsUnhealthy returns true if the status is unhealthy.
func (s Status) IsUnhealthy() bool {
	return s.Status == "unhealthy"
}

// WithSubStatus adds a sub-status and returns a copy.
func (s Status) WithSubStatus(subStatus Status) Status {
	newSubStatuses := make([]Status, len(s.SubStatuses), len(s.SubStatuses)+1)
	copy(newSubStatuses, s.SubStatuses)
	s.SubStatuses = append(newSubStatuses, subStatus)
	return s
}

// Healthy builds a healthy status for a component.
func Healthy(component, message string) Status {
	if message == "" {
		message = "Component healthy"
	}
	return Status{
		Component: component,
		Healthy:   true,
		Status:    "healthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Unhealthy builds an unhealthy status from an error. The error message is
// sanitized before exposure so health endpoints never leak connection
// strings, paths, or credentials.
func Unhealthy(component string, err error) Status {
	message := "Component unhealthy"
	if err != nil {
		message = sanitizeErrorMessage(err.Error())
	}
	return Status{
		Component: component,
		Healthy:   false,
		Status:    "unhealthy",
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded builds a degraded status with a sanitized reason.
func Degraded(component, reason string) Status {
	return Status{
		Component: component,
		Healthy:   false,
		Status:    "degraded",
		Message:   sanitizeErrorMessage(reason),
		Timestamp: time.Now(),
	}
}

// Aggregate rolls sub-statuses up into a system status: unhealthy if any sub
// is unhealthy, degraded if any sub is degraded, healthy otherwise.
func Aggregate(component string, subs ...Status) Status {
	overall := Healthy(component, "")
	for _, sub := range subs {
		overall = overall.WithSubStatus(sub)
		switch {
		case sub.IsUnhealthy():
			overall.Healthy = false
			overall.Status = "unhealthy"
			overall.Message = sub.Component + ": " + sub.Message
		case sub.IsDegraded() && !overall.IsUnhealthy():
			overall.Healthy = false
			overall.Status = "degraded"
			overall.Message = sub.Component + ": " + sub.Message
		}
	}
	return overall
}

// sanitizeErrorMessage removes potentially sensitive information from error
// messages before they appear in health responses.
//
// Sanitization patterns:
//   - URLs (http://, https://, nats://) → [URL]
//   - File paths (Unix and Windows) → [PATH]
//   - IP addresses → [IP]
//   - Port numbers → [PORT]
//   - Credentials (password=X, token=X, key=X, secret=X) → [REDACTED]
func sanitizeErrorMessage(err string) string {
	if err == "" {
		return ""
	}

	sanitized := err

	// URLs first, since they contain paths
	sanitized = httpURLRegex.ReplaceAllString(sanitized, "[URL]")
	sanitized = natsURLRegex.ReplaceAllString(sanitized, "[URL]")

	sanitized = unixPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = windowsPathRegex.ReplaceAllString(sanitized, "[PATH]")
	sanitized = ipAddrRegex.ReplaceAllString(sanitized, "[IP]")
	sanitized = portRegex.ReplaceAllString(sanitized, "[PORT]")

	lowerSanitized := strings.ToLower(sanitized)
	if strings.Contains(lowerSanitized, "password") || strings.Contains(lowerSanitized, "token") ||
		strings.Contains(lowerSanitized, "key") || strings.Contains(lowerSanitized, "secret") ||
		strings.Contains(lowerSanitized, "credential") {
		sanitized = credentialRegex.ReplaceAllString(sanitized, "[REDACTED]")
	}

	return sanitized
}
