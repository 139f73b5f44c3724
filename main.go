// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ttbt-io/scorebook/backend"
)

var (
	configFile     = flag.String("config", "", "Optional YAML configuration file. Explicit flags override its values.")
	addr           = flag.String("addr", ":8080", "The TCP address to listen to")
	debugMode      = flag.Bool("debug", false, "Enable debug mode")
	dataDir        = flag.String("data-dir", "data", "Directory for game and team data")
	tlsCert        = flag.String("tls-cert", "", "Path to main HTTP TLS certificate")
	tlsKey         = flag.String("tls-key", "", "Path to main HTTP TLS key")
	allowedOrigins = flag.String("allowed-origins", "", "Comma-separated list of browser origins allowed to call the API")
	threeOutsDelay = flag.Duration("three-outs-delay", 0, "Pause before the three-outs notice is pushed (default 600ms)")
)

// main starts the web server and registers the API handlers.
func main() {
	flag.Parse()

	opts := backend.Options{
		Addr:           *addr,
		DataDir:        *dataDir,
		Debug:          *debugMode,
		ThreeOutsDelay: *threeOutsDelay,
	}
	if *allowedOrigins != "" {
		opts.AllowedOrigins = strings.Split(*allowedOrigins, ",")
	}
	certFile, keyFile := *tlsCert, *tlsKey

	if *configFile != "" {
		cfg, err := backend.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		explicit := make(map[string]bool)
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		cfg.Apply(&opts, explicit)
		if cfg.TLSCert != "" && !explicit["tls-cert"] {
			certFile = cfg.TLSCert
		}
		if cfg.TLSKey != "" && !explicit["tls-key"] {
			keyFile = cfg.TLSKey
		}
	}

	if certFile != "" && keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			log.Fatalf("Failed to load main TLS cert/key: %v", err)
		}
		opts.Cert = &cert
	}

	// Initialize Encryption Key and Storage
	store, masterKey, err := backend.OpenStorage(opts.DataDir)
	if err != nil {
		log.Fatalf("Critical Security Error: %v", err)
	}
	opts.Storage = store
	opts.MasterKey = masterKey

	server, err := backend.StartServer(opts)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	} else {
		log.Println("Gracefully stopped.")
	}
}
