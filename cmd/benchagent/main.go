package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"dbbenchtools/internal/runner"
	"dbbenchtools/internal/server"
	"dbbenchtools/pkg/dbbench"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readRunnerConfig()
	if err != nil {
		return err
	}

	if verbose, _ := parseEnv("BENCHAGENT_DEBUG", false, strconv.ParseBool); verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	metrics := prometheus.NewRegistry()
	runMetrics := &runner.Metrics{}
	runMetrics.Register(metrics)
	cfg.Metrics = runMetrics

	r := runner.New(cfg)
	go r.Run(context.Background())

	router := chi.NewRouter()
	router.Use(middleware.CleanPath)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestLogger(
		&middleware.DefaultLogFormatter{
			Logger:  log.New(os.Stderr, "", log.LstdFlags),
			NoColor: true,
		},
	))
	router.Use(middleware.NoCache)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.AllowContentType("application/json"))
	router.Use(middleware.Heartbeat("/ping"))

	h := server.NewHandler(r, metrics)
	router.Get("/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}).ServeHTTP)
	h.RegisterRoutes(router)

	addr := getEnvOr("BENCHAGENT_ADDR", ":8080")
	fmt.Printf("Listening on %s\n", addr)
	defer fmt.Println("Goodbye!")
	return http.ListenAndServe(addr, router)
}

func getEnvOr(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}

func parseEnv[T any](name string, or T, parser func(string) (T, error)) (T, error) {
	v := os.Getenv(name)
	if v == "" {
		return or, nil
	}
	parsed, err := parser(v)
	if err != nil {
		return or, fmt.Errorf("read env var %s: %w", name, err)
	}
	return parsed, nil
}

func readRunnerConfig() (runner.Config, error) {
	spec, err := dbbench.NewConnSpec(
		os.Getenv("DBHOST"),
		os.Getenv("DBPORT"),
		os.Getenv("DBUSER"),
		os.Getenv("DBPASS"),
		os.Getenv("DBNAME"),
		os.Getenv("DBDRIVER"),
	)
	if err != nil {
		return runner.Config{}, err
	}

	timeout, err := parseEnv("DBBENCH_TIMEOUT", time.Duration(0), time.ParseDuration)
	if err != nil {
		return runner.Config{}, err
	}
	keep, err := parseEnv("DBBENCH_KEEP_ARTIFACTS", false, strconv.ParseBool)
	if err != nil {
		return runner.Config{}, err
	}

	return runner.Config{
		Conn: spec,
		Bench: dbbench.Runner{
			Executable:    getEnvOr("DBBENCH_PATH", dbbench.DefaultExecutable),
			WorkDir:       os.Getenv("DBBENCH_WORKDIR"),
			KeepArtifacts: keep,
			Timeout:       timeout,
		},
	}, nil
}
