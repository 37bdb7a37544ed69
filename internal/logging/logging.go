package logging

import (
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Setup installs the prefixed text formatter on the standard logger and sets
// its level. An unknown level leaves the logger at info.
func Setup(level string) {
	formatter := new(prefixed.TextFormatter)
	formatter.FullTimestamp = true
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.ForceColors = false
	formatter.ForceFormatting = false
	logrus.SetFormatter(formatter)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.WithField("prefix", "main").Warnf("unknown log level %q, using info", level)
		return
	}
	logrus.SetLevel(lvl)
}
