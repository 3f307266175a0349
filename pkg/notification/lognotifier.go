package notification

import "log/slog"

// LogNotifier writes notifications to the log instead of delivering them.
// Only for local development: bodies may carry verification codes.
type LogNotifier struct{}

// NewLogNotifier creates a new log notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the notification
func (l *LogNotifier) Send(data Data) error {
	slog.Info("NOTIFICATION (log delivery)", "to", data.To, "subject", data.Subject, "body", data.Body)
	return nil
}
