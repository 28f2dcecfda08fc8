package apitools

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/run-bigpig/apitools/pkg/auth"
	"github.com/run-bigpig/apitools/pkg/catalog"
	"github.com/run-bigpig/apitools/pkg/config"
	"github.com/run-bigpig/apitools/pkg/executor"
	"github.com/run-bigpig/apitools/pkg/interfaces"
	"github.com/run-bigpig/apitools/pkg/logging"
	"github.com/run-bigpig/apitools/pkg/openapi"
	"github.com/run-bigpig/apitools/pkg/tools"
)

const defaultCatalogTimeout = 30 * time.Second

// Option configures a Client
type Option func(*Client)

// Client turns a product catalog of OpenAPI documents into executable tools
type Client struct {
	catalog  interfaces.Catalog
	cache    interfaces.SpecCache
	compiler *openapi.Compiler
	invoker  tools.Invoker
	logger   logging.Logger

	registryOpts []tools.RegistryOption
}

// WithLogger sets the logger for the client and every component it builds
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithCatalog sets the catalog the client loads specs from
func WithCatalog(cat interfaces.Catalog) Option {
	return func(c *Client) {
		c.catalog = cat
	}
}

// WithSpecCache sets the cache in front of the catalog
func WithSpecCache(cache interfaces.SpecCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithInvoker sets the invoker compiled tools execute through. Use this to
// wrap the executor with middleware such as tracing.
func WithInvoker(invoker tools.Invoker) Option {
	return func(c *Client) {
		c.invoker = invoker
	}
}

// WithRegistryOptions sets options applied to the registry built by LoadTools
func WithRegistryOptions(opts ...tools.RegistryOption) Option {
	return func(c *Client) {
		c.registryOpts = append(c.registryOpts, opts...)
	}
}

// NewClient creates a new client with the given options
func NewClient(options ...Option) (*Client, error) {
	client := &Client{
		logger: logging.New(),
	}
	for _, option := range options {
		option(client)
	}

	if client.catalog == nil {
		return nil, fmt.Errorf("a catalog is required")
	}
	if client.cache == nil {
		client.cache = catalog.NewSpecCache(client.catalog, 0)
	}
	if client.invoker == nil {
		client.invoker = executor.NewExecutor(executor.WithLogger(client.logger))
	}
	client.compiler = openapi.NewCompiler(client.logger)

	return client, nil
}

// NewClientFromConfig builds a fully wired client from a configuration.
// A token source for external OIDC is only set up when credentials are present.
func NewClientFromConfig(cfg *config.Config, options ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(logging.WithLevel(cfg.Logging.Level))

	var catalogOpts []catalog.ClientOption
	if cfg.Catalog.APIKey != "" {
		catalogOpts = append(catalogOpts, catalog.WithAPIKey(cfg.Catalog.APIKey))
	}
	if cfg.Catalog.MaxRetries > 0 {
		catalogOpts = append(catalogOpts, catalog.WithRetries(uint64(cfg.Catalog.MaxRetries)))
	}
	cat := catalog.NewClient(cfg.Catalog.BaseURL, defaultCatalogTimeout, catalogOpts...)

	var cache interfaces.SpecCache
	if cfg.Cache.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		cache = catalog.NewRedisSpecCache(redisClient, cat, cfg.Cache.TTL.Std(),
			catalog.WithRedisLogger(logger))
	} else {
		cache = catalog.NewSpecCache(cat, cfg.Cache.TTL.Std())
	}

	var execOpts []executor.Option
	execOpts = append(execOpts, executor.WithLogger(logger))
	if cfg.Auth.ClientID != "" {
		tm := auth.NewTokenManager(cfg.Auth.BaseURL, cfg.Auth.ClientID, cfg.Auth.ClientSecret,
			auth.WithLogger(logger))
		execOpts = append(execOpts, executor.WithTokenSource(tm))
	}

	opts := []Option{
		WithLogger(logger),
		WithCatalog(cat),
		WithSpecCache(cache),
		WithInvoker(executor.NewExecutor(execOpts...)),
	}
	return NewClient(append(opts, options...)...)
}

// LoadTools lists every product in the catalog, fetches each spec through the
// cache, compiles it, and returns a registry of the resulting tools. A spec
// that fails to fetch or compile is logged and skipped so one broken document
// never takes down the rest of the catalog.
func (c *Client) LoadTools(ctx context.Context) (*tools.Registry, error) {
	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	registry := tools.NewRegistry(append([]tools.RegistryOption{tools.WithLogger(c.logger)}, c.registryOpts...)...)
	for _, product := range products {
		if err := c.loadProduct(ctx, registry, product); err != nil {
			c.logger.Warn(ctx, "Skipping product", map[string]interface{}{
				"product": product,
				"error":   err.Error(),
			})
		}
	}
	return registry, nil
}

// LoadProductTools compiles the specs of a single product into a registry
func (c *Client) LoadProductTools(ctx context.Context, product string) (*tools.Registry, error) {
	registry := tools.NewRegistry(append([]tools.RegistryOption{tools.WithLogger(c.logger)}, c.registryOpts...)...)
	if err := c.loadProduct(ctx, registry, product); err != nil {
		return nil, err
	}
	return registry, nil
}

func (c *Client) loadProduct(ctx context.Context, registry *tools.Registry, product string) error {
	specs, err := c.catalog.ListSpecs(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to list specs for %s: %w", product, err)
	}

	for _, info := range specs {
		content, err := c.cache.Get(ctx, product, info.SpecLocation)
		if err != nil {
			c.logger.Warn(ctx, "Skipping spec", map[string]interface{}{
				"product": product,
				"spec":    info.SpecLocation,
				"error":   err.Error(),
			})
			continue
		}

		descriptors, err := c.compiler.CompileSpec(ctx, content, product)
		if err != nil {
			c.logger.Warn(ctx, "Skipping spec", map[string]interface{}{
				"product": product,
				"spec":    info.SpecLocation,
				"error":   err.Error(),
			})
			continue
		}

		for _, desc := range descriptors {
			registry.Register(tools.NewHTTPTool(desc, c.invoker))
		}
	}
	return nil
}

// Compile compiles a raw OpenAPI document directly, bypassing the catalog
func (c *Client) Compile(ctx context.Context, raw, category string) ([]*tools.Descriptor, error) {
	return c.compiler.CompileSpec(ctx, raw, category)
}

// Convenience constructors

// NewCatalogClient creates a new catalog client
func NewCatalogClient(baseURL string, timeout time.Duration, opts ...catalog.ClientOption) *catalog.Client {
	return catalog.NewClient(baseURL, timeout, opts...)
}

// NewTokenManager creates a new OAuth2 client-credentials token manager
func NewTokenManager(baseURL, clientID, clientSecret string, opts ...auth.Option) *auth.TokenManager {
	return auth.NewTokenManager(baseURL, clientID, clientSecret, opts...)
}

// NewExecutor creates a new tool executor
func NewExecutor(opts ...executor.Option) *executor.Executor {
	return executor.NewExecutor(opts...)
}

// NewSpecCache creates a new in-memory spec cache with the given TTL
func NewSpecCache(cat interfaces.Catalog, ttl time.Duration) *catalog.SpecCache {
	return catalog.NewSpecCache(cat, ttl)
}
