package main

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/rs/zerolog/log"

    "github.com/local/pdfmanager/internal/artifact"
    cfgpkg "github.com/local/pdfmanager/internal/config"
    "github.com/local/pdfmanager/internal/filetype"
    "github.com/local/pdfmanager/internal/imagerender"
    "github.com/local/pdfmanager/internal/limiter"
    logpkg "github.com/local/pdfmanager/internal/logger"
    "github.com/local/pdfmanager/internal/metrics"
    "github.com/local/pdfmanager/internal/orchestrator"
    "github.com/local/pdfmanager/internal/pdfcodec"
    "github.com/local/pdfmanager/internal/statuscheck"
    "github.com/local/pdfmanager/internal/storage"
    web "github.com/local/pdfmanager/internal/web"
)

func main() {
    if err := cfgpkg.LoadDotEnv(); err != nil {
        fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
    }
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level: cfg.Logging.Level,
        Pretty: cfg.Logging.Pretty,
        File: cfg.Logging.File,
        MaxSizeMB: cfg.Logging.MaxSizeMB,
        MaxBackups: cfg.Logging.MaxBackups,
        MaxAgeDays: cfg.Logging.MaxAgeDays,
        Compress: cfg.Logging.Compress,
        SendToAxiom: cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey: cfg.Axiom.APIKey,
        AxiomOrgID: cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush: cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Artifact store
    var (
        store artifact.Store
        redisPinger statuscheck.Pinger
    )
    switch cfg.Artifacts.Backend {
    case "redis":
        rs, err := artifact.NewRedisStore(cfg.Artifacts.RedisURL, cfg.Artifacts.TTL)
        if err != nil {
            log.Fatal().Err(err).Msg("failed to connect to redis")
        }
        store, redisPinger = rs, rs
    default:
        store = artifact.NewMemoryStore(cfg.Artifacts.TTL, time.Minute)
    }
    defer store.Close()

    // Optional S3 export
    deps := orchestrator.Dependencies{
        Codec: pdfcodec.New(pdfcodec.Options{Optimize: cfg.Codec.Optimize}),
        Previewer: imagerender.NewPreviewer(
            imagerender.NewRasterizer(imagerender.ColorMode(cfg.Preview.Color)),
            imagerender.PreviewOptions{
                Scale: cfg.Preview.Scale,
                MaxPages: cfg.Preview.MaxPages,
                Format: imagerender.Format(cfg.Preview.Format),
                Quality: cfg.Preview.Quality,
            }),
        Types: filetype.New(),
        Artifacts: store,
    }
    var bucket statuscheck.BucketChecker
    if cfg.S3.Bucket != "" {
        s3c, err := storage.NewS3Client(context.Background(), storage.Options{
            Bucket: cfg.S3.Bucket,
            Prefix: cfg.S3.Prefix,
            Region: cfg.S3.Region,
            Endpoint: cfg.S3.Endpoint,
            AccessKeyID: cfg.S3.AccessKeyID,
            SecretAccessKey: cfg.S3.SecretAccessKey,
        })
        if err != nil {
            log.Warn().Err(err).Str("bucket", cfg.S3.Bucket).Msg("s3 export disabled")
        } else {
            deps.Exporter = s3c
            bucket = s3c
        }
    }

    lim := limiter.New(limiter.Options{MaxInflight: cfg.Server.MaxInflight, Wait: cfg.Server.InflightWait})
    deps.Limiter = lim
    orch := orchestrator.New(deps)

    checker := statuscheck.New(statuscheck.Options{
        Redis: redisPinger,
        S3: bucket,
        MuPDF: imagerender.SelfCheck,
        Limiter: func() (int, int) {
            n := 0
            for _, v := range lim.Inflight() { n += v }
            return n, lim.Capacity()
        },
    })

    // Dashboard + API
    dash := web.New(web.Options{
        Ops: orch,
        Status: checker,
        MaxUploadBytes: cfg.Server.MaxUploadBytes(),
        Username: cfg.Web.Username,
        PasswordHash: cfg.Web.PasswordHash,
    })
    if cfg.Web.Username != "" && cfg.Web.PasswordHash == "" {
        log.Warn().Msg("WEB_USERNAME set without WEB_PASSWORD_HASH; dashboard login disabled")
    }

    srv := &http.Server{
        Addr: ":" + cfg.Server.Port,
        Handler: dash.Handler(),
        ReadHeaderTimeout: 10 * time.Second,
    }

    go func(){
        log.Info().
            Str("artifact_store", cfg.Artifacts.Backend).
            Bool("s3_export", deps.Exporter != nil).
            Int("max_inflight", lim.Capacity()).
            Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    // Graceful shutdown
    stop := make(chan os.Signal, 1)
    signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
    <-stop
    ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
    defer cancel()
    if err := srv.Shutdown(ctx); err != nil {
        log.Error().Err(err).Msg("shutdown error")
    }
    log.Info().Msg("shutdown complete")
}
