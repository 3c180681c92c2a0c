// The skylog agent reads log lines from stdin, buffers them, and ships them
// to the API in batches, while a background monitor pushes system metrics.
//
// Usage:
//
//	some-command 2>&1 | skylog-agent
package main

import (
	"bufio"
	"log"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"skylog/buffer"
	"skylog/client"
	"skylog/config"
	"skylog/models"
	"skylog/monitor"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	cfg := config.LoadAgent()
	if cfg.APIKey == "" {
		log.Fatal("SKYLOG_API_KEY not set")
	}

	var exclude *regexp.Regexp
	if cfg.ExcludePattern != "" {
		var err error
		exclude, err = regexp.Compile(cfg.ExcludePattern)
		if err != nil {
			log.Fatal("Invalid SKYLOG_EXCLUDE pattern:", err)
		}
	}

	cl := client.New(client.Config{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
	})

	buf := buffer.New(cl, buffer.Options{
		FlushInterval: cfg.FlushInterval,
		BatchSize:     cfg.BatchSize,
		MaxBufferSize: cfg.MaxBufferSize,
	})
	buf.Start()

	mon := monitor.New(cl, cfg.MonitorInterval)
	mon.Start()

	sessionID := uuid.NewString()
	hostID, _ := os.Hostname()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			log.Printf("Agent: stdin read failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("Agent: shipping to %s, session=%s", cfg.APIURL, sessionID)

loop:
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if line == "" || (exclude != nil && exclude.MatchString(line)) {
				continue
			}
			ev := models.NewLogEvent(models.LevelInfo, line, models.SourceTerminal)
			ev.SessionID = sessionID
			ev.HostID = hostID
			buf.Add(ev)
		case sig := <-sigCh:
			log.Printf("Agent: received %v, draining", sig)
			break loop
		}
	}

	mon.Stop()
	buf.Stop()

	stats := buf.Stats()
	log.Printf("Agent: done, flushed=%d failed=%d dropped=%d", stats.Flushed, stats.Failed, stats.Dropped)
}
