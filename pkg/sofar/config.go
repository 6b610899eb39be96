package sofar

import (
	"context"

	"github.com/levenlabs/go-lflag"
	"github.com/sofarbridge/sofarbridge/pkg/common"
	"github.com/sofarbridge/sofarbridge/pkg/log"
)

// Configured sets up the SofarCloud client based on flags.
func Configured() *Client {
	apiURL := lflag.String("sofar-api-url", "https://global.sofarcloud.com/api/", "Base URL of the SofarCloud API")
	username := lflag.String("sofar-username", "", "SofarCloud account name")
	password := lflag.String("sofar-password", "", "SofarCloud account password")
	timeout := lflag.Duration("sofar-timeout", defaultTimeout, "Timeout for SofarCloud API calls")
	insecure := lflag.Bool("sofar-insecure-tls", false, "Skip TLS certificate validation for the SofarCloud API (insecure)")

	c := &Client{}

	lflag.Do(func() {
		c.baseURL = *apiURL
		c.username = *username
		c.password = *password
		c.timezone = systemTimezone()
		c.client = common.HTTPClient(*timeout, *insecure)
		if *insecure {
			log.Ctx(context.Background()).Warn("TLS certificate validation for the SofarCloud API is DISABLED")
		}
	})

	return c
}
