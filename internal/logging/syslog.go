package logging

import (
	"fmt"
	"log/syslog"
)

// SyslogConfig configures an optional syslog sink for the daemon's log
// output, layered on top of the slog-based Logger above. Facility is a
// plain RFC 3164 facility code (1 = user, the BSD default) rather than a
// combined syslog.Priority, so it round-trips through YAML as a small int.
type SyslogConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Protocol string
	Tag      string
	Facility int
}

// DefaultSyslogConfig returns syslog disabled, with the defaults that
// NewSyslogWriter applies when a field is left zero.
func DefaultSyslogConfig() SyslogConfig {
	return SyslogConfig{
		Enabled:  false,
		Port:     514,
		Protocol: "udp",
		Tag:      "netfleet",
		Facility: 1,
	}
}

// NewSyslogWriter dials a syslog daemon at cfg.Host:cfg.Port and returns a
// writer usable as a slog.Handler sink. Port, Protocol and Tag default when
// left zero; Host is required.
func NewSyslogWriter(cfg SyslogConfig) (*syslog.Writer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("syslog: host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 514
	}
	if cfg.Protocol == "" {
		cfg.Protocol = "udp"
	}
	if cfg.Tag == "" {
		cfg.Tag = "netfleet"
	}

	priority := syslog.Priority(cfg.Facility<<3) | syslog.LOG_INFO
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return syslog.Dial(cfg.Protocol, addr, priority, cfg.Tag)
}
