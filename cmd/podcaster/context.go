package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"podcaster/internal/apiclient"
	"podcaster/internal/config"
	"podcaster/internal/daemonctl"
	"podcaster/internal/transport"
)

type commandContext struct {
	serverFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string) *commandContext {
	return &commandContext{
		serverFlag: serverFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if server := c.serverFlagValue(); server != "" {
			cfg.Client.ServerURL = strings.TrimRight(server, "/")
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) serverFlagValue() string {
	if c.serverFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.serverFlag)
}

// target returns the daemon address and token the commands talk to.
func (c *commandContext) target() daemonctl.Target {
	return daemonctl.TargetFromConfig(c.configValue())
}

func (c *commandContext) client() (*apiclient.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return apiclient.New(cfg.Client.ServerURL, cfg.Paths.APIToken, transport.PolicyFromConfig(cfg, nil), 0), nil
}

func (c *commandContext) withClient(fn func(*apiclient.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	return wrapDaemonError(fn(client), client.BaseURL())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
