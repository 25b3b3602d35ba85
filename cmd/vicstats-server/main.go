package main

import (
	"flag"
	"net/http"
	"vicstats-backend/lib/configutil"
	"vicstats-backend/lib/serviceutil"
	"vicstats-backend/services/covidstats"
)

type Config struct {
	Port     int                       `json:"port"`
	Upstream covidstats.UpstreamConfig `json:"upstream"`
}

func InitCovidstats(mux *http.ServeMux, cfg covidstats.UpstreamConfig) {
	service := covidstats.NewServiceFromConfig(cfg, nil)
	mux.Handle(covidstats.NewHandler(service))
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	mux := http.NewServeMux()
	InitCovidstats(mux, cfg.Upstream)

	go serviceutil.StartHttpServer(cfg.Port, mux)
	<-ctx.Done()
}
