package log

import "github.com/sirupsen/logrus"

var _logger = logrus.StandardLogger().WithField("module", "esign")

// Logger returns the logger used throughout the esign service. It carries a
// module field so esign entries can be recognized in aggregated output.
func Logger() *logrus.Entry {
	return _logger
}
