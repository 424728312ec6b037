package inbound

import (
	"strings"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

type statusFamily struct {
	status   model.IntegrationStatus
	keywords []string
}

// Disconnect keywords are checked first: "DISCONNECTED" and "UNPAIRED"
// contain active keywords as substrings.
var statusFamilies = []statusFamily{
	{model.StatusDisconnected, []string{"DISCONNECT", "LOGOUT", "UNPAIRED", "OFFLINE"}},
	{model.StatusActive, []string{"CONNECT", "CONNECTED", "AVAILABLE", "PAIRED", "READY", "RECEIVED", "READ", "COMPOSING", "TYPING"}},
	{model.StatusQR, []string{"QRCODE", "QR"}},
	{model.StatusError, []string{"ERROR", "FAIL"}},
}

// MapStatus classifies a provider status or event name. ok is false when no
// family matches and the stored status should be left alone.
func MapStatus(raw string) (status model.IntegrationStatus, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for _, fam := range statusFamilies {
		for _, kw := range fam.keywords {
			if strings.Contains(s, kw) {
				return fam.status, true
			}
		}
	}
	return "", false
}
