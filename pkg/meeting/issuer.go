// Package meeting issues joinable video-room links for sessions.
package meeting

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Provider names the video backend behind a link.
type Provider string

const (
	ProviderJitsi    Provider = "JITSI"
	ProviderInternal Provider = "INTERNAL"
)

// Issuer builds deterministic Jitsi room URLs from session identifiers.
type Issuer struct {
	baseURL    string
	roomPrefix string
}

// NewIssuer constructs an issuer. Empty arguments fall back to the public Jitsi host.
func NewIssuer(baseURL, roomPrefix string) *Issuer {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://meet.jit.si"
	}
	if roomPrefix == "" {
		roomPrefix = "studymate-session"
	}
	return &Issuer{baseURL: baseURL, roomPrefix: roomPrefix}
}

// Provider reports the backend this issuer targets.
func (i *Issuer) Provider() Provider {
	return ProviderJitsi
}

// RoomName returns the room identifier for a session.
func (i *Issuer) RoomName(sessionID string) string {
	return fmt.Sprintf("%s-%s", i.roomPrefix, sessionID)
}

// IssueLink returns a joinable meeting URL for the session.
func (i *Issuer) IssueLink(ctx context.Context, sessionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id required")
	}
	return i.baseURL + "/" + url.PathEscape(i.RoomName(sessionID)), nil
}
