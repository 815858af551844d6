package main

import (
	"context"
	"flag"
	"os"

	"httpecho/echoClient"

	"github.com/rs/zerolog"
)

func main() {
	url := flag.String("url", echoClient.DefaultURL, "target url")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		log = log.Level(lvl)
	} else {
		log.Fatal().Err(err).Msg("Invalid log level")
	}

	// failures are already reported; the process still exits normally
	_, _ = echoClient.New(*url, os.Stdout, log).Run(context.Background())
}
