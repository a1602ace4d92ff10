package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger. Staging gets human-readable
// console output; production logs structured JSON.
func Init(envName string) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if envName != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// MaskPhone masks a phone number for logging, keeping the first and last two
// characters (e.g. 55******67).
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
