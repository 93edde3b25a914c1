package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/config"
	"github.com/rollbacknet/battlecore/internal/core/event"
	"github.com/rollbacknet/battlecore/internal/metrics"
	"github.com/rollbacknet/battlecore/internal/netplay"
	"github.com/rollbacknet/battlecore/internal/netplay/transport"
	"github.com/rollbacknet/battlecore/internal/rollback"
	"github.com/rollbacknet/battlecore/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              battlecore  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      deterministic rollback battle core     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config.
	cfgPath := "config/battlesim.toml"
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger.
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Script host: one package VM per battle package directory.
	printSection("scripting")
	host := scripting.NewHost(log)
	defer host.Close()

	var live *sim.BattleSimulation
	surface := scripting.Surface{Current: func() *sim.BattleSimulation { return live }}
	if _, err := host.LoadPackage("battle", []string{"battle"}, cfg.Server.ScriptDir, surface); err != nil {
		return fmt.Errorf("load script package: %w", err)
	}
	printOK("package scripts loaded")
	fmt.Println()

	// 4. Build the initial simulation and rollback controller.
	printSection("simulation")
	statusRegistry := status.NewRegistry()
	seed := uint64(time.Now().UnixNano())
	live = sim.NewSimulation(&cfg.Battle, statusRegistry, seed)

	const numPlayers = 2
	const localIndex = 0
	bus := event.NewBus()
	controller := rollback.New(&cfg.Battle, log, bus, live, localIndex, numPlayers)

	event.Subscribe(bus, func(ev rollback.Resimulated) {
		log.Debug("resimulated", zap.Int("from", ev.FromTime), zap.Int("to", ev.ToTime))
	})
	event.Subscribe(bus, func(ev rollback.SlowedDown) {
		log.Debug("pacing slowdown", zap.Int("peer", ev.PeerIndex))
	})
	event.Subscribe(bus, func(ev rollback.DesyncFlagged) {
		log.Warn("desync flagged", zap.Int("frame", ev.Frame), zap.Error(ev.Err))
	})
	printStat("players", numPlayers)
	printOK("rollback controller ready")
	fmt.Println()

	// 5. Metrics HTTP server.
	printSection("metrics")
	registry := prometheus.NewRegistry()
	rollbackMetrics := metrics.NewRollback(registry)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.Network.MetricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", zap.Error(err))
		}
	}()
	printOK(fmt.Sprintf("listening on %s", cfg.Network.MetricsAddr))
	fmt.Println()

	// 6. Netplay websocket accept loop.
	var peersMu sync.Mutex
	peers := make(map[int]*transport.Conn)
	broadcast := func(item netplay.NetplayBufferItem, leads []netplay.Lead) error {
		peersMu.Lock()
		defer peersMu.Unlock()
		for idx, conn := range peers {
			if err := conn.Send(item, leads); err != nil {
				log.Warn("send to peer failed", zap.Int("peer", idx), zap.Error(err))
			}
		}
		return nil
	}

	upgrader := websocket.Upgrader{}
	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/netplay", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		conn := transport.NewConn(ws)
		peerIndex := 1 // single remote seat in this minimal wiring
		controller.Connect(peerIndex)
		peersMu.Lock()
		peers[peerIndex] = conn
		peersMu.Unlock()
		go readPeerLoop(conn, controller, peerIndex, log, func() {
			peersMu.Lock()
			delete(peers, peerIndex)
			peersMu.Unlock()
		})
	})
	netServer := &http.Server{Addr: cfg.Network.BindAddress, Handler: wsMux}
	go func() {
		if err := netServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("netplay server stopped", zap.Error(err))
		}
	}()

	// 7. Frame loop.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	const frameRate = time.Second / 60
	ticker := time.NewTicker(frameRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("netplay listening on %s", cfg.Network.BindAddress))
	printReady(fmt.Sprintf("frame loop started (%s/frame)", frameRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			local := netplay.NetplayBufferItem{}
			if err := controller.Tick(local, nil, broadcast); err != nil {
				log.Error("controller tick failed", zap.Error(err))
			}
			bus.SwapBuffers()
			bus.DispatchAll()
			rollbackMetrics.SyncedTime.Set(float64(controller.SyncedTime))
			rollbackMetrics.SimulationTime.Set(float64(live.Time))
			live = controller.Sim

		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(ctx)
			_ = netServer.Shutdown(ctx)
			log.Info("battlesim stopped")
			return nil
		}
	}
}

// readPeerLoop drains one peer's websocket connection and forwards every
// received frame into the controller's ingest queue. onClose removes the
// peer from the broadcast set once the connection ends.
func readPeerLoop(conn *transport.Conn, controller *rollback.Controller, peerIndex int, log *zap.Logger, onClose func()) {
	defer onClose()
	frame := 0
	for {
		item, leads, err := conn.Recv()
		if err != nil {
			log.Info("peer disconnected", zap.Int("peer", peerIndex), zap.Error(err))
			controller.Disconnect(peerIndex)
			return
		}
		controller.EnqueueRemote(peerIndex, frame, item)
		for _, lead := range leads {
			controller.ReportRemoteLead(lead.PeerIndex, lead.Frames)
		}
		frame++
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
