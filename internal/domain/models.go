package domain

import (
	"fmt"
	"time"
)

// Kind tags which variant of Outcome is populated.
type Kind string

const (
	KindSuccess            Kind = "success"
	KindApplicationFailure Kind = "application_failure"
	KindTransportFailure   Kind = "transport_failure"
	KindNetworkFailure     Kind = "network_failure"
)

// Outcome is the classified result of probing a single URL.
//
// Only the fields belonging to Kind are meaningful:
//   - success: Title (Description, Domain, Thumbnail are display only)
//   - application_failure: Error
//   - transport_failure: StatusCode
//   - network_failure: Message
type Outcome struct {
	URL         string    `json:"url"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Domain      string    `json:"domain,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Error       string    `json:"error,omitempty"`
	StatusCode  int       `json:"status_code,omitempty"`
	Message     string    `json:"message,omitempty"`
	LatencyMS   float64   `json:"latency_ms"`
	CheckedAt   time.Time `json:"checked_at"`
}

func Success(url, title string) Outcome {
	return Outcome{URL: url, Kind: KindSuccess, Title: title}
}

func ApplicationFailure(url, errMsg string) Outcome {
	return Outcome{URL: url, Kind: KindApplicationFailure, Error: errMsg}
}

func TransportFailure(url string, status int) Outcome {
	return Outcome{URL: url, Kind: KindTransportFailure, StatusCode: status}
}

func NetworkFailure(url, msg string) Outcome {
	return Outcome{URL: url, Kind: KindNetworkFailure, Message: msg}
}

// Passed reports whether the outcome counts towards Summary.Passed.
func (o Outcome) Passed() bool { return o.Kind == KindSuccess }

// Markdown renders a markdown link for a successful outcome, or "" otherwise.
func (o Outcome) Markdown() string {
	if !o.Passed() {
		return ""
	}
	title := o.Title
	if title == "" {
		title = "No title"
	}
	return fmt.Sprintf("[%s](%s)", title, o.URL)
}

// Detail is the human-readable reason carried by a failed outcome.
func (o Outcome) Detail() string {
	switch o.Kind {
	case KindSuccess:
		return o.Title
	case KindApplicationFailure:
		return o.Error
	case KindTransportFailure:
		return fmt.Sprintf("HTTP %d", o.StatusCode)
	case KindNetworkFailure:
		return o.Message
	}
	return ""
}
