package models

import "time"

// Значения настроек оповещения по умолчанию.
const (
	DefaultThresholdCount   = 20
	DefaultThresholdMinutes = 5
)

// AlertSettings описывает настройки email-оповещений.
//
// Поля:
//   - Enabled: включены ли оповещения
//   - Recipient: адрес получателя
//   - ThresholdCount: сколько атак в окне считается превышением
//   - ThresholdMinutes: длина скользящего окна в минутах
//   - LastAlertTime: время последнего оповещения (нулевое, если не было)
type AlertSettings struct {
	Enabled          bool
	Recipient        string
	ThresholdCount   int
	ThresholdMinutes int
	LastAlertTime    time.Time
}

// DefaultAlertSettings возвращает настройки по умолчанию: оповещения выключены.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		ThresholdCount:   DefaultThresholdCount,
		ThresholdMinutes: DefaultThresholdMinutes,
	}
}

// Window возвращает длину окна подсчёта атак.
func (s AlertSettings) Window() time.Duration {
	return time.Duration(s.ThresholdMinutes) * time.Minute
}
