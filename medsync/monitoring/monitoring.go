package monitoring

import (
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/medsync-health/medsync-app/conf"
	"github.com/medsync-health/medsync-app/log"
)

var a *apm

type apm struct {
	App *newrelic.Application
}

func (a apm) Start(msg string) *newrelic.Transaction {
	if a.App != nil {
		return a.App.StartTransaction(msg)
	}
	return nil
}

func (a apm) End(txn *newrelic.Transaction) {
	if txn != nil {
		txn.End()
	}
}

func GetMonitor() *apm {
	if a == nil {
		target := conf.GetEnv("DEPLOYMENT_TARGET")
		if target == "" {
			target = "local"
		}
		licenseKey := conf.GetEnv("NEW_RELIC_LICENSE_KEY")
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(fmt.Sprintf("medsync-%s", target)),
			newrelic.ConfigLicense(licenseKey),
			newrelic.ConfigEnabled(licenseKey != ""),
			func(cfg *newrelic.Config) { cfg.HighSecurity = true },
		)
		if err != nil {
			log.API.Error(err)
		}
		a = &apm{
			App: app,
		}
	}
	return a
}
