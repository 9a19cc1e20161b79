package notify

import (
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
)

// Provider names one configured outbound route. The set is closed: adding a
// route means adding a variant here and wiring it in the registry, so a
// missing case is caught at compile/startup time, not mid-send.
type Provider int

const (
	// ProviderDefault is the low-volume transactional SMTP route.
	ProviderDefault Provider = iota
	// ProviderRelay is the high-volume SMTP relay route.
	ProviderRelay
	// ProviderMarketing is the campaign route (API-based).
	ProviderMarketing
)

var providerNames = [...]string{"default", "relay", "marketing"}

func (p Provider) String() string {
	if int(p) < len(providerNames) {
		return providerNames[p]
	}
	return "unknown"
}

// ParseProvider maps a request-supplied name onto the enum; an empty name
// resolves to the default route.
func ParseProvider(name string) (Provider, error) {
	switch core.CleanString(name, true) {
	case "", "default":
		return ProviderDefault, nil
	case "relay":
		return ProviderRelay, nil
	case "marketing":
		return ProviderMarketing, nil
	}
	return ProviderDefault, errors.Errorf("unknown email provider %q", name)
}

// MailerRegistry resolves a Provider to its configured transport. All
// transports are built and credential-checked at startup; Mailer only looks
// up, it never dials.
type MailerRegistry interface {
	Mailer(p Provider) (core.Mailer, error)
}
