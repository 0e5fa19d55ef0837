// Command agentcored runs the multi-tenant agent execution runtime
// described in spec.md: it wires the Tool Registry, Governance, Rate
// Limiter, Chain/Task repositories, Executor, and HTTP surface together,
// grounded on the teacher's cmd/hector entrypoint structure (load
// config, build the runtime, serve).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/omniforge/agentcore/internal/config"
	"github.com/omniforge/agentcore/internal/logging"
	"github.com/omniforge/agentcore/internal/telemetry"
	"github.com/omniforge/agentcore/pkg/chainrepo"
	"github.com/omniforge/agentcore/pkg/executor"
	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/llmtool"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/server"
	"github.com/omniforge/agentcore/pkg/task"
	"github.com/omniforge/agentcore/pkg/tool"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	policyFile := flag.String("policy-file", "", "path to a tenant policy YAML file (optional)")
	dbDSN := flag.String("db-dsn", "", "database/sql DSN for task/chain persistence (empty uses in-memory stores)")
	dbDialect := flag.String("db-dialect", "sqlite3", "database dialect: sqlite3, postgres, or mysql")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	metricsEnabled := flag.Bool("metrics", true, "enable Prometheus metrics")
	tracingEnabled := flag.Bool("tracing", false, "enable OpenTelemetry tracing (stdout exporter)")

	ratelimitStore := flag.String("ratelimit-store", "memory", "rate-limit usage store: memory or etcd")
	etcdEndpoints := flag.String("etcd-endpoints", "localhost:2379", "comma-separated etcd endpoints (ratelimit-store=etcd)")
	consulAddr := flag.String("consul-addr", "", "Consul address for tenant policy distribution (empty disables)")
	consulPolicyPrefix := flag.String("consul-policy-prefix", "agentcore/policy/tenants/", "Consul KV prefix tenant rate-limit policies are read from")

	mcpServerURL := flag.String("mcp-server-url", "", "MCP server URL to discover tools from (empty disables)")
	mcpTransport := flag.String("mcp-transport", "sse", "MCP transport: sse or stdio")
	mcpName := flag.String("mcp-name", "mcp", "name tag for tools discovered from -mcp-server-url")

	pluginPath := flag.String("tool-plugin-path", "", "path to a go-plugin tool binary to launch (empty disables)")
	pluginName := flag.String("tool-plugin-name", "plugin", "name tag for tools discovered from -tool-plugin-path")
	flag.Parse()

	logging.Init(logging.ParseLevel(*logLevel), os.Stderr)
	log := logging.Logger()

	if err := config.LoadEnvFiles(); err != nil {
		log.Warn("failed to load .env files", "error", err)
	}
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := telemetry.NewMetrics(*metricsEnabled)
	tp, err := telemetry.InitTracerProvider(ctx, telemetry.TracerConfig{
		Enabled:      *tracingEnabled,
		ServiceName:  "agentcored",
		SamplingRate: 1,
		Output:       os.Stderr,
	})
	if err != nil {
		log.Error("failed to init tracer provider", "error", err)
		os.Exit(1)
	}
	if shutdownable, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		defer shutdownable.Shutdown(context.Background())
	}

	gov := governance.NewGovernance(governance.NewTracker(nil))

	usageStore, closeUsageStore, err := openRatelimitStore(*ratelimitStore, *etcdEndpoints)
	if err != nil {
		log.Error("failed to open ratelimit store", "error", err)
		os.Exit(1)
	}
	defer closeUsageStore()
	limiter := ratelimit.NewLimiter(usageStore)

	if *consulAddr != "" {
		consulCfg := consulapi.DefaultConfig()
		consulCfg.Address = *consulAddr
		consulClient, err := consulapi.NewClient(consulCfg)
		if err != nil {
			log.Warn("failed to build consul client, tenant policies from consul disabled", "error", err)
		} else {
			policySrc := ratelimit.NewConsulPolicySource(consulClient, *consulPolicyPrefix, limiter)
			if err := policySrc.LoadOnce(); err != nil {
				log.Warn("failed to load tenant policies from consul", "error", err)
			}
			policySrc.Watch()
			defer policySrc.Close()
		}
	}

	if *policyFile != "" {
		pf, err := config.LoadPolicyFile(*policyFile)
		if err != nil {
			log.Error("failed to load policy file", "path", *policyFile, "error", err)
			os.Exit(1)
		}
		pf.Apply(gov, limiter)

		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := config.WatchPolicyFile(watchCtx, *policyFile, gov, limiter); err != nil {
			log.Warn("failed to watch policy file for changes", "path", *policyFile, "error", err)
		}
	}

	registry := tool.NewRegistry()
	llmConfig := llmtool.Config{
		APIKey:       firstNonEmpty(cfg.OpenAIAPIKey, cfg.GroqAPIKey, cfg.OpenRouterAPIKey),
		DefaultModel: cfg.LLM.DefaultModel,
		TimeoutMS:    cfg.LLM.TimeoutMS,
		MaxRetries:   cfg.LLM.MaxRetries,
	}
	localSrc := tool.NewLocalSource("local", llmtool.New(llmConfig))
	if err := registry.RegisterFromSource(ctx, localSrc, false); err != nil {
		log.Error("failed to register local tools", "error", err)
		os.Exit(1)
	}

	if *mcpServerURL != "" {
		mcpSrc := tool.NewMCPSource(tool.MCPServerConfig{
			Name:      *mcpName,
			Transport: *mcpTransport,
			URL:       *mcpServerURL,
			TimeoutMS: cfg.LLM.TimeoutMS,
		})
		if err := registry.RegisterFromSource(ctx, mcpSrc, false); err != nil {
			log.Warn("failed to discover tools from mcp server, continuing without them", "url", *mcpServerURL, "error", err)
		}
	}

	if *pluginPath != "" {
		pluginSrc := tool.NewPluginSource(*pluginName, *pluginPath)
		if err := registry.RegisterFromSource(ctx, pluginSrc, false); err != nil {
			log.Warn("failed to launch tool plugin, continuing without it", "path", *pluginPath, "error", err)
		}
	}

	exec := executor.New(registry, gov, limiter)

	tasks, chains, closeStores, err := openStores(ctx, *dbDSN, *dbDialect)
	if err != nil {
		log.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer closeStores()

	runner := newAgentRunner(registry, exec, chains, tasks, metrics, cfg.LLM.DefaultModel)

	srv := server.New(tasks, chains, limiter, runner, server.WithGovernance(gov))

	root := http.NewServeMux()
	root.Handle("/", srv)
	if h := metrics.Handler(); h != nil {
		root.Handle("/metrics", h)
	}

	httpSrv := &httpServer{addr: *addr, handler: root}
	go func() {
		log.Info("agentcored listening", "addr", *addr)
		if err := httpSrv.ListenAndServe(); err != nil {
			log.Error("http server exited", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during http shutdown", "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// openStores builds the task/chain repositories. An empty dsn uses the
// in-memory stores (single-instance / dev), matching spec.md's
// C10/C12 "any compliant store" wording.
func openStores(ctx context.Context, dsn, dialect string) (task.Repository, chainrepo.Repository, func(), error) {
	if dsn == "" {
		return task.NewMemoryRepository(), chainrepo.NewMemoryRepository(), func() {}, nil
	}

	taskRepo, err := task.OpenSQLRepository(ctx, task.Dialect(dialect), dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open task store: %w", err)
	}

	chainRepo, err := chainrepo.OpenSQLRepository(ctx, chainrepo.Dialect(dialect), dsn)
	if err != nil {
		taskRepo.Close()
		return nil, nil, nil, fmt.Errorf("failed to open chain store: %w", err)
	}

	closeFn := func() {
		taskRepo.Close()
		chainRepo.Close()
	}
	return taskRepo, chainRepo, closeFn, nil
}

// openRatelimitStore builds the usage-counter backend a Limiter draws
// from. "memory" (the default) holds counters in the agentcored process;
// "etcd" makes usage durable and shared across replicas via CAS-based
// increments, per SPEC_FULL.md §2.2's "distributed rate-limit state"
// requirement.
func openRatelimitStore(kind, etcdEndpoints string) (ratelimit.Store, func(), error) {
	switch kind {
	case "", "memory":
		return ratelimit.NewMemoryStore(), func() {}, nil
	case "etcd":
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   strings.Split(etcdEndpoints, ","),
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to etcd: %w", err)
		}
		store := ratelimit.NewEtcdStore(client, "")
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown ratelimit-store %q (want memory or etcd)", kind)
	}
}
