package constants

import "time"

var CacheTTL = struct {
	SongVideoSearch time.Duration
	LyricsImport    time.Duration
	PresenterPrefs  time.Duration
	ReminderSent    time.Duration
}{
	SongVideoSearch: 2 * time.Hour,
	LyricsImport:    30 * time.Minute,
	PresenterPrefs:  0, // no expiry, mirror of the operator's preferences
	ReminderSent:    48 * time.Hour,
}

var PresenterLimits = struct {
	MaxTextOverlays  int
	ClientSendBuffer int
	WriteWait        time.Duration
	PongWait         time.Duration
	PingPeriod       time.Duration
}{
	MaxTextOverlays:  10,
	ClientSendBuffer: 8,
	WriteWait:        10 * time.Second,
	PongWait:         60 * time.Second,
	PingPeriod:       54 * time.Second,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

var AIInputLimits = struct {
	MaxPromptLength int
}{
	MaxPromptLength: 2000,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
	HealthCheckTimeout  time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        60 * time.Second,
	RateLimitTimeout:    5 * time.Minute,
	HealthCheckInterval: 30 * time.Second,
	HealthCheckTimeout:  5 * time.Second,
}

var MatchingConfig = struct {
	MinGroupSize int
	MaxGroupSize int
}{
	MinGroupSize: 3,
	MaxGroupSize: 8,
}
