package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/grabzilla/grabzilla/internal/config"
	"github.com/grabzilla/grabzilla/internal/core"
	"github.com/grabzilla/grabzilla/internal/platform"
)

func main() {
	log := logrus.New()
	log.Info("Starting grabzilla...")

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.GrabZilla.LogLevel)

	extractorPath := cfg.Paths.Extractor
	if extractorPath == "" {
		extractorPath, err = platform.FindExtractor(log, "")
		if err != nil {
			log.Fatal(err)
		}
	}

	transcoderPath := cfg.Paths.Transcoder
	if transcoderPath == "" {
		transcoderPath, err = platform.FindTranscoder(log)
		if err != nil {
			log.WithError(err).Warn("Transcoder not found, conversion is disabled")
			transcoderPath = ""
		}
	}

	proberPath := cfg.Paths.Prober
	if proberPath == "" {
		proberPath, err = platform.FindProbe()
		if err != nil {
			log.Warn("Prober not found, conversion progress will be approximate")
			proberPath = ""
		}
	}

	app := core.New(log, core.Options{
		ExtractorPath:  extractorPath,
		TranscoderPath: transcoderPath,
		ProberPath:     proberPath,
		MaxConcurrent:  cfg.Downloads.MaxConcurrent,
	})

	go func() {
		for ev := range app.Events() {
			entry := log.WithFields(logrus.Fields{
				"job":    ev.ID,
				"status": ev.Status,
			})
			switch {
			case ev.Error != "":
				entry.WithField("error", ev.Error).Error("Job failed")
			case ev.Status.IsTerminal():
				entry.WithField("file", ev.FilePath).Info("Job finished")
			default:
				entry.WithField("progress", ev.Progress).Debug("Job progress")
			}
		}
	}()

	log.Info("Started grabzilla")

	// CTRL+C handler.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-interrupt
	log.WithField("signal", sig.String()).Info("Got terminating signal, shutting down...")

	app.Close()
	os.Exit(0)
}
