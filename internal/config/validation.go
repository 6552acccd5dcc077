package config

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// ValidatePublish checks the fields required to talk to Confluence.
func (c *Config) ValidatePublish() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	return c.validateConfluence()
}

// ValidateSource checks the fields required to build the local tree.
func (c *Config) ValidateSource() error {
	return c.validateSource()
}

func (c *Config) validateSource() error {
	if strings.TrimSpace(c.Source.Dir) == "" {
		return errors.ConfigError("required configuration missing").WithContext("field", "source.dir").Build()
	}
	if strings.TrimSpace(c.Source.MkDocsFile) == "" {
		return errors.ConfigError("required configuration missing").WithContext("field", "source.mkdocs_file").Build()
	}
	return nil
}

func (c *Config) validateConfluence() error {
	cc := c.Confluence
	required := map[string]string{
		"confluence.base_url":  cc.BaseURL,
		"confluence.space_key": cc.SpaceKey,
		"confluence.username":  cc.Username,
		"confluence.api_token": cc.APIToken,
	}
	for _, field := range []string{"confluence.base_url", "confluence.space_key", "confluence.username", "confluence.api_token"} {
		if strings.TrimSpace(required[field]) == "" {
			return errors.ConfigError("required configuration missing").WithContext("field", field).Build()
		}
	}

	u, err := url.Parse(cc.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.ConfigError("confluence.base_url must be an absolute URL").
			WithCause(err).
			WithContext("value", cc.BaseURL).
			Build()
	}
	return nil
}
