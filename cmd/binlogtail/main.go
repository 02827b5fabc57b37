package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zhukovaskychina/mysql-binlog-client/config"
	"github.com/zhukovaskychina/mysql-binlog-client/logging"
	"github.com/zhukovaskychina/mysql-binlog-client/replica"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "configPath", "", "path to the replica .ini config file")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "binlogtail: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
		fmt.Fprintf(os.Stderr, "binlogtail: init logger: %v\n", err)
		os.Exit(1)
	}

	client := replica.New(cfg)
	if err := client.Start(); err != nil {
		logging.Errorf("binlogtail: start: %v", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "binlogtail: streaming from %s:%d\n", cfg.Host, cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case rec, ok := <-client.Events():
			if !ok {
				if err := <-client.Errs(); err != nil {
					logging.Errorf("binlogtail: stream ended: %v", err)
					os.Exit(1)
				}
				return
			}
			if err := enc.Encode(rec); err != nil {
				logging.Errorf("binlogtail: encode change record: %v", err)
			}
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "binlogtail: shutting down")
			client.Stop()
			return
		}
	}
}
