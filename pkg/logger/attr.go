package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// FlagName records a feature flag name under the key "flag".
func FlagName(name string) slog.Attr {
	return slog.String("flag", name)
}

// UserID records the user identifier under the key "user_id". Empty IDs
// (anonymous evaluations) produce an empty Attr.
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Environment records the evaluation environment under the key "env".
func Environment(env string) slog.Attr {
	return slog.String("env", env)
}
