package app

import (
	"io"
	"log"
	"os"

	"docrequest/internal/config"
	"docrequest/internal/infra/gelf"

	"github.com/joho/godotenv"
)

// LoadEnv reads a local .env file when one exists.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on OS environment variables")
	}
}

// SetupLogging mirrors the standard logger to GELF when GELF_ADDR is set.
// The returned func closes the GELF connection.
func SetupLogging(cfg config.Config, service string) func() {
	log.SetFlags(log.LstdFlags | log.LUTC)
	if cfg.GelfAddr == "" {
		return func() {}
	}
	w, err := gelf.New(cfg.GelfAddr, service)
	if err != nil {
		log.Printf("gelf disabled: %v", err)
		return func() {}
	}
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	return func() {
		log.SetOutput(os.Stderr)
		_ = w.Close()
	}
}
