package adapter

import "log/slog"

// LevelSuccess marks a completed account operation. It sits between Info
// and Warn so it survives LOG_LEVEL=info and is filtered by warn.
const LevelSuccess = slog.LevelInfo + 2
