package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"httpecho/echoServer"
	"httpecho/journal"
	"httpecho/profiling"

	"github.com/rs/zerolog"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	addr := flag.String("addr", net.JoinHostPort(echoServer.Host, echoServer.Port), "listen address")
	dsn := flag.String("journal", "", "PostgreSQL connection string; exchanges are not stored when empty")
	var db journal.Config
	flag.StringVar(&db.Username, "journal-user", "", "journal database user, used when -journal is empty")
	flag.StringVar(&db.Password, "journal-password", "", "journal database password")
	flag.StringVar(&db.Host, "journal-host", journal.DBHost, "journal database host")
	flag.StringVar(&db.Port, "journal-port", journal.DBPort, "journal database port")
	flag.StringVar(&db.DBName, "journal-db", journal.DBName, "journal database name")
	prof := flag.String("profile", "", "profile the process: cpu or mem")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		log = log.Level(lvl)
	} else {
		log.Fatal().Err(err).Msg("Invalid log level")
	}

	profiler, err := profiling.Start(*prof, ".")
	if err != nil {
		log.Fatal().Err(err).Msg("Init profiler error")
	}

	opts := []echoServer.Option{echoServer.WithLogger(log)}
	if *dsn == "" && db.Username != "" {
		*dsn = db.ConnString()
	}
	if *dsn != "" {
		j, err := journal.Open(*dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("Init journal error")
		}
		defer j.Close()
		opts = append(opts, echoServer.WithRecorder(j))
	}

	s := echoServer.Init(opts...)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig
		log.Info().Msg("Server stopping")
		profiler.Stop()
		_ = s.Close()
	}()

	if err := s.ListenAndServe(*addr); err != nil {
		profiler.Stop()
		log.Fatal().Err(err).Msg("Error starting the server")
	}
}
