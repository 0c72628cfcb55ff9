package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"docket/internal/api"
	"docket/internal/config"
)

type commandContext struct {
	configFlag *string
	bindFlag   *string
	tokenFlag  *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, bindFlag, tokenFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		bindFlag:   bindFlag,
		tokenFlag:  tokenFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

// client builds a control API client from config and flag overrides.
func (c *commandContext) client() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	bind := cfg.Paths.APIBind
	if c.bindFlag != nil && strings.TrimSpace(*c.bindFlag) != "" {
		bind = strings.TrimSpace(*c.bindFlag)
	}
	if bind == "" {
		return nil, fmt.Errorf("control API is disabled; set paths.api_bind in the config or pass --api")
	}

	token := cfg.Paths.APIToken
	if c.tokenFlag != nil && strings.TrimSpace(*c.tokenFlag) != "" {
		token = strings.TrimSpace(*c.tokenFlag)
	}
	return api.NewClient(bind, token), nil
}

func (c *commandContext) withClient(ctx context.Context, fn func(context.Context, *api.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	if err := fn(ctx, client); err != nil {
		return wrapDaemonError(err)
	}
	return nil
}

func wrapDaemonError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "daemon unreachable") {
		return fmt.Errorf("%w; start it with `docket run`", err)
	}
	return err
}
