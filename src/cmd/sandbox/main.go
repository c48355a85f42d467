/*
sandbox serves a fake Teamwork API from a JSON fixture, for trying the invoicer
without touching a real site:

	go run ./src/cmd/sandbox -fixture src/cmd/sandbox/fixture.example.json
	go run ./src/cmd/invoicer --domain http://127.0.0.1:8402 --apikey sandbox --project_ids all_projects \
		--start_date 20240201 --end_date 20240229 --logdir ./tmp/logs
*/
package main

import (
	"flag"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/config"
	"teamwork-invoicer/src/pkg/sandbox"
	"teamwork-invoicer/src/pkg/util"
)

func main() {
	fixturePath := flag.String("fixture", "", "Path to the fixture JSON")
	address := flag.String("address", "", "Listen address, default 127.0.0.1")
	port := flag.Int("port", 0, "Listen port, default 8402")
	apiKey := flag.String("apikey", "", "API key clients must send, default 'sandbox'")
	rateLimit := flag.Float64("rate-limit", 0, "Requests per second per client, default 20")
	flag.Parse()

	var required util.RequiredFlags
	required.Add(fixturePath, "fixture")
	required.Ensure(flag.Usage)

	config.LoadDotEnv(".env")

	fixture, e := sandbox.LoadFixture(*fixturePath)
	e.QuitIf(xerr.ErrorTypeError)
	tl.Log(
		tl.Info, palette.Green, "Loaded fixture '%s': %s projects",
		*fixturePath, len(fixture.Projects),
	)

	cfg := sandbox.InitializeConfig(&sandbox.Config{
		Address:             *address,
		Port:                *port,
		APIKey:              *apiKey,
		MiddlewareRateLimit: *rateLimit,
	})
	e = sandbox.New(fixture, cfg).Start()
	e.QuitIf(xerr.ErrorTypeError)
}
