package irc

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the framework's standard logrus logger, honoring the two
// environment switches the original exposed for daemonized/unattended runs:
// MIDORI_LOG_FILE redirects output to a named file instead of stderr, and
// MIDORI_NO_COLOR disables the text formatter's ANSI color output for
// terminals or log collectors that don't support it.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   os.Getenv("MIDORI_NO_COLOR") != "",
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if path := os.Getenv("MIDORI_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.WithError(err).WithField("path", path).Error("irc: could not open log file, falling back to stderr")
		} else {
			log.SetOutput(f)
		}
	}

	return log
}
