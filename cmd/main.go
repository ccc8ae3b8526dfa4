package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"net/url"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/kubb/featureflag"
	kubbhttp "github.com/aukilabs/kubb/http"
	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/modules"
	"github.com/aukilabs/kubb/modules/sandbox"
	"github.com/aukilabs/kubb/octree"
	"github.com/aukilabs/kubb/smoketest"
	kwebsocket "github.com/aukilabs/kubb/websocket"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The Kubb version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "kubb_info",
		Help:        "Kubb information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"KUBB_ADDR"                 help:"Listening address for client connections."`
	AdminAddr          string        `cli:""        env:"KUBB_ADMIN_ADDR"           help:"Admin listening address."`
	PublicEndpoint     string        `cli:""        env:"KUBB_PUBLIC_ENDPOINT"      help:"The public endpoint where this Kubb server is reachable."`
	ServerID           string        `cli:""        env:"KUBB_SERVER_ID"            help:"The server id used as global session id prefix."`
	LogLevel           string        `cli:""        env:"KUBB_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"KUBB_LOG_INDENT"           help:"Indent logs."`
	SyncClockInterval  time.Duration `cli:",hidden" env:"KUBB_SYNC_CLOCK_INTERVAL"  help:"Client sync clock (heartbeat) message interval."`
	ClientIdleTimeout  time.Duration `cli:",hidden" env:"KUBB_CLIENT_IDLE_TIMEOUT"  help:"Time until an idle client will be disconnected"`
	FrameDuration      time.Duration `cli:",hidden" env:"KUBB_FRAME_DURATION"       help:"The duration of a session frame."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"KUBB_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	Region             regionConfig  `cli:",hidden" env:"-"                         help:"Session octree region configuration."`
	Events             eventsConfig  `cli:",hidden" env:"-"                         help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"KUBB_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                         help:"Show version."`
	Help               bool          `cli:""        env:"-"                         help:"Show help."`
}

type regionConfig struct {
	Size    float64 `cli:",hidden" env:"KUBB_REGION_SIZE"     help:"The edge length of the cube covered by session octrees."`
	OffsetX float64 `cli:",hidden" env:"KUBB_REGION_OFFSET_X" help:"The x coordinate of the session octree region center."`
	OffsetY float64 `cli:",hidden" env:"KUBB_REGION_OFFSET_Y" help:"The y coordinate of the session octree region center."`
	OffsetZ float64 `cli:",hidden" env:"KUBB_REGION_OFFSET_Z" help:"The z coordinate of the session octree region center."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"KUBB_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"KUBB_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"KUBB_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"KUBB_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4000",
		AdminAddr:          ":18190",
		PublicEndpoint:     "http://localhost:4000",
		LogLevel:           logs.InfoLevel.String(),
		SyncClockInterval:  time.Second * 5,
		ClientIdleTimeout:  time.Minute * 5,
		FrameDuration:      time.Millisecond * 15,
		LogSummaryInterval: time.Minute,
		Region: regionConfig{
			Size:    sandbox.DefaultRegionSize,
			OffsetX: sandbox.DefaultRegionOffset.X(),
			OffsetY: sandbox.DefaultRegionOffset.Y(),
			OffsetZ: sandbox.DefaultRegionOffset.Z(),
		},
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts Kubb server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	transport := metrics.HTTPTransport(http.DefaultTransport)

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     transport,
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "kubb",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	sessions := models.SessionStore{
		ServerID: conf.ServerID,
	}
	featureFlags := featureflag.New(conf.FeatureFlags)
	region := octree.FromSizeOffset(conf.Region.Size, mgl64.Vec3{
		conf.Region.OffsetX,
		conf.Region.OffsetY,
		conf.Region.OffsetZ,
	})

	sessionAPI := kubbhttp.SessionAPI{
		Sessions:    &sessions,
		OctreeStats: sessionOctreeStats,
	}

	var service http.ServeMux
	service.Handle("/health", kubbhttp.HandleWithCORS(http.HandlerFunc(kubbhttp.HandleHealthCheck)))
	service.Handle("/version", kubbhttp.HandleWithCORS(http.HandlerFunc(kubbhttp.HandleVersion(version))))
	service.Handle("/ready", kubbhttp.HandleWithCORS(http.HandlerFunc(kubbhttp.HandleReadyCheck(readinessCheck))))
	service.Handle("/sessions", kubbhttp.HandleWithCORS(sessionAPI.Handler()))
	service.Handle("/sessions/", kubbhttp.HandleWithCORS(sessionAPI.Handler()))

	service.Handle("/", kubbhttp.HandleWithCORS(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			var rh kwebsocket.Handler = &kwebsocket.RealtimeHandler{
				ClientSyncClockInterval: conf.SyncClockInterval,
				ClientIdleTimeout:       conf.ClientIdleTimeout,
				FrameDuration:           conf.FrameDuration,
				Sessions:                &sessions,
				Modules: []modules.Module{
					&sandbox.Module{
						Region:       region,
						FeatureFlags: featureFlags,
					},
				},
				FeatureFlags: featureFlags,
				Region:       region,
			}
			h := kwebsocket.HandlerWithLogs(rh, conf.LogSummaryInterval)
			h = kwebsocket.HandlerWithMetrics(h, conf.PublicEndpoint)
			defer h.Close()

			kwebsocket.Handle(ctx, conn, h)
		},
	}))

	service.Handle("/ping", websocket.Server{
		Handler: func(ws *websocket.Conn) {
			defer ws.Close()
			io.Copy(ws, ws)
		},
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", kubbhttp.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))
	admin.HandleFunc("/ready", kubbhttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Endpoint:   conf.PublicEndpoint,
		UserAgent:  fmt.Sprintf("Kubb %s", version),
		SendResult: logSmokeTestResult,
	}))
	admin.Handle("/sessions", sessionAPI.Handler())
	admin.Handle("/sessions/", sessionAPI.Handler())

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("endpoint", conf.PublicEndpoint).
		WithTag("region", region).
		WithTag("feature_flags", featureFlags.Strings()).
		Info("starting kubb server")

	kubbhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			kubbhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func readinessCheck() bool {
	return true
}

func sessionOctreeStats(s *models.Session) (octree.Stats, bool) {
	state, ok := sandbox.SessionState(s)
	if !ok {
		return octree.Stats{}, false
	}
	return state.Stats(), true
}

func logSmokeTestResult(ctx context.Context, res smoketest.Results) error {
	logs.WithTag("from_endpoint", res.FromEndpoint).
		WithTag("to_endpoint", res.ToEndpoint).
		WithTag("status", res.Status).
		WithTag("latency_ms", res.LatencyMilliSec).
		Info("smoke test done")
	return nil
}

func validateConfig(conf config) error {
	if _, err := url.ParseRequestURI(conf.PublicEndpoint); err != nil {
		return errors.New("invalid public endpoint").Wrap(err)
	}

	if !(conf.Region.Size > 0) {
		return errors.New("invalid region size").
			WithTag("region_size", conf.Region.Size)
	}

	if conf.FrameDuration <= 0 {
		return errors.New("invalid frame duration").
			WithTag("frame_duration", conf.FrameDuration)
	}

	return nil
}
