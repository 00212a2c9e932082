package auth

import (
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// OpenBrowser opens url with the platform's default handler.
func OpenBrowser(url string) error {
	if err := open.Run(url); err != nil {
		return err
	}
	log.Debug("login: opened authorization url in browser")
	return nil
}
