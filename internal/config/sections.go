package config

import (
	"strings"
	"time"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

type LimitSettings struct {
	MaxSteps  int `json:"max_steps"  toml:"max_steps"`
	MaxDepth  int `json:"max_depth"  toml:"max_depth"`
	TimeoutMS int `json:"timeout_ms" toml:"timeout_ms"`
}

type HistorySettings struct {
	Enabled    bool   `json:"enabled"     toml:"enabled"`
	MaxEntries int    `json:"max_entries" toml:"max_entries"`
	Path       string `json:"path"        toml:"path"`
}

type OutputSettings struct {
	Format OutputFormat `json:"format" toml:"format"`
	Color  bool         `json:"color"  toml:"color"`
	Style  string       `json:"style"  toml:"style"`
}

const (
	HistoryMaxEntriesDefault = 200
	HistoryMaxEntriesMax     = 5000
	OutputStyleDefault       = "monokai"
)

func (l LimitSettings) Timeout() time.Duration {
	return time.Duration(l.TimeoutMS) * time.Millisecond
}

func DefaultHistorySettings() HistorySettings {
	return HistorySettings{Enabled: true, MaxEntries: HistoryMaxEntriesDefault}
}

func DefaultOutputSettings() OutputSettings {
	return OutputSettings{Format: OutputText, Color: true, Style: OutputStyleDefault}
}

// Negative limits are treated as unset.
func NormaliseLimitSettings(in LimitSettings) LimitSettings {
	return LimitSettings{
		MaxSteps:  max(in.MaxSteps, 0),
		MaxDepth:  max(in.MaxDepth, 0),
		TimeoutMS: max(in.TimeoutMS, 0),
	}
}

func NormaliseHistorySettings(in HistorySettings) HistorySettings {
	out := in
	out.Path = strings.TrimSpace(in.Path)
	out.MaxEntries = clampInt(
		in.MaxEntries,
		1,
		HistoryMaxEntriesMax,
		HistoryMaxEntriesDefault,
	)
	return out
}

func NormaliseOutputSettings(in OutputSettings) OutputSettings {
	out := in
	out.Format = ParseOutputFormat(string(in.Format), OutputText)
	out.Style = strings.TrimSpace(in.Style)
	if out.Style == "" {
		out.Style = OutputStyleDefault
	}
	return out
}

func ParseOutputFormat(in string, def OutputFormat) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(in)) {
	case string(OutputText):
		return OutputText
	case string(OutputJSON):
		return OutputJSON
	case string(OutputYAML), "yml":
		return OutputYAML
	default:
		return def
	}
}

func clampInt(value, min, max, fallback int) int {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
