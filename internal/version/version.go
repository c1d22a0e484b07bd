// Package version хранит сведения о сборке, заданные через -ldflags.
package version

import "go.uber.org/zap"

var (
	// buildVersion - версия сборки приложения.
	buildVersion string
	// buildDate - дата сборки приложения.
	buildDate string
	// buildCommit - хеш коммита сборки.
	buildCommit string
)

// BuildInfo - сведения о сборке. Незаданные поля равны "N/A".
type BuildInfo struct {
	Version string
	Date    string
	Commit  string
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Current возвращает сведения о текущей сборке.
func Current() BuildInfo {
	return BuildInfo{
		Version: orNA(buildVersion),
		Date:    orNA(buildDate),
		Commit:  orNA(buildCommit),
	}
}

// Log пишет сведения о сборке в журнал.
func (b BuildInfo) Log(logger *zap.Logger, component string) {
	logger.Info("starting "+component,
		zap.String("version", b.Version),
		zap.String("build_date", b.Date),
		zap.String("commit", b.Commit),
	)
}
