package emailsvc

import (
	"github.com/pkg/errors"

	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core"
	"github.com/Cfberrio/DisciplineRift-BackEnd-sub001/core/notify"
)

// Registry builds and holds the configured transport per provider. All
// credential checks happen in NewRegistry: a misconfigured route kills the
// process at startup, never at first send.
type Registry struct {
	mailers map[notify.Provider]core.Mailer
}

var _ notify.MailerRegistry = (*Registry)(nil)

func NewRegistry(conf *core.Config, logger core.Logger) (*Registry, error) {
	from := conf.DefaultFromEmail()

	defaultMailer, err := NewSMTPMailer(notify.ProviderDefault.String(), conf.Email.Default, from, logger)
	if err != nil {
		return nil, err
	}
	relayMailer, err := NewSMTPMailer(notify.ProviderRelay.String(), conf.Email.Relay, from, logger)
	if err != nil {
		return nil, err
	}
	marketingMailer, err := NewSendgridMailer(conf.Email.SendgridAPIKey, from, logger)
	if err != nil {
		return nil, err
	}

	return &Registry{mailers: map[notify.Provider]core.Mailer{
		notify.ProviderDefault:   defaultMailer,
		notify.ProviderRelay:     relayMailer,
		notify.ProviderMarketing: marketingMailer,
	}}, nil
}

// NewConsoleRegistry maps every provider to a console mailer; DEV and tests.
func NewConsoleRegistry(mailer core.Mailer) *Registry {
	return &Registry{mailers: map[notify.Provider]core.Mailer{
		notify.ProviderDefault:   mailer,
		notify.ProviderRelay:     mailer,
		notify.ProviderMarketing: mailer,
	}}
}

func (r *Registry) Mailer(p notify.Provider) (core.Mailer, error) {
	mailer, ok := r.mailers[p]
	if !ok {
		return nil, errors.Errorf("email provider %q is not configured", p)
	}
	return mailer, nil
}
