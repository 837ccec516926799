package constants

import "time"

const (
	AppName = "pairlink"
	Version = "0.3.0"
)

// Network defaults
const (
	DefaultDirectAddr  = "ws://127.0.0.1:9190/ws"
	DefaultRelayURL    = "http://localhost:9090"
	DefaultRelayPort   = "9090"
	WSBufferSize       = 32768
	MaxWSMessageSize   = 1 * 1024 * 1024
	WSHandshakeTimeout = 10 * time.Second
	DialTimeout        = 10 * time.Second
)

// Authentication timing
const (
	ChallengeTimeout  = 5 * time.Second
	VerdictTimeout    = 5 * time.Second
	PairingTimeout    = 5 * time.Minute
	SessionExpiry     = 7 * 24 * time.Hour
	HeartbeatInterval = 30 * time.Second
)

// Pairing codes are 8 decimal digits, single use.
const PairingCodeLength = 8

// Relay settings
const (
	EndpointRooms     = "/api/rooms"
	EndpointWebSocket = "/ws"
	RoomTTL           = 24 * time.Hour
	CleanupInterval   = 30 * time.Second
	RedisKeyPrefix    = "pairlink:room:"

	MaxConnectionsPerIP = 10
	MaxRoomBodySize     = 4096
	MaxJoinAttempts     = 10
	BlockDuration       = 15 * time.Minute

	MaxAuditLogsPerMinute = 1000
	CopyBufferSize        = 32 * 1024
)

// Environment variables
const (
	EnvDirectAddrs = "PAIRLINK_DIRECT"
	EnvRelayURL    = "PAIRLINK_RELAY_URL"
	EnvRelayCode   = "PAIRLINK_RELAY_CODE"
	EnvStorePath   = "PAIRLINK_STORE"
	EnvStoreKey    = "PAIRLINK_STORE_KEY"
	EnvHostname    = "PAIRLINK_HOSTNAME"
	EnvRelayHost   = "PAIRLINK_RELAY_HOST"
	EnvPort        = "PORT"
)

// Time formats
const TimeFormatShort = "15:04:05"

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorBold   = "\033[1m"
	ColorDim    = "\033[2m"
	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorRed    = "\033[31m"
	ColorPurple = "\033[35m"
)

// Messages
const (
	MsgInvalidJSON      = "Invalid JSON"
	MsgMethodNotAllowed = "Method not allowed"
	MsgRoomNotFound     = "Room not found or expired"
	MsgInvalidRoom      = "Invalid room code"
	MsgUsage            = "Usage: pairlink [flags]"
)
