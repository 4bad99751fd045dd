package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields
// replaced by the redaction placeholder "***". Use this when logging or
// printing the active configuration so secrets are never accidentally
// exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	redact(&out.Redis.Password)
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the
	// redacted copy.
	if cfg.Watchlist != nil {
		out.Watchlist = make([]string, len(cfg.Watchlist))
		copy(out.Watchlist, cfg.Watchlist)
	}
	if cfg.Notify.Events != nil {
		out.Notify.Events = make([]string, len(cfg.Notify.Events))
		copy(out.Notify.Events, cfg.Notify.Events)
	}
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}

	// Copy maps for the same reason.
	if cfg.Classes != nil {
		out.Classes = make(map[string]ClassConfig, len(cfg.Classes))
		for k, v := range cfg.Classes {
			out.Classes[k] = v
		}
	}
	if cfg.Filter.Reputation != nil {
		out.Filter.Reputation = make(map[string]float64, len(cfg.Filter.Reputation))
		for k, v := range cfg.Filter.Reputation {
			out.Filter.Reputation[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
