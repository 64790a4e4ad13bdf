package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"

	// PostgresConnectionError represents an error when the journal database is unreachable.
	PostgresConnectionError ErrorCode = "postgres_connection_error"
	// PostgresWriteError represents an error when appending to the journal.
	PostgresWriteError ErrorCode = "postgres_write_error"

	// KafkaReadError represents an error when reading a command message.
	KafkaReadError ErrorCode = "kafka_read_error"
	// KafkaDecodeError represents a command message that cannot be decoded.
	KafkaDecodeError ErrorCode = "kafka_decode_error"
	// KafkaWriteError represents an error when publishing events.
	KafkaWriteError ErrorCode = "kafka_write_error"

	// SnapshotStoreError represents an error when persisting a snapshot.
	SnapshotStoreError ErrorCode = "snapshot_store_error"
	// SnapshotLoadError represents an error when loading a snapshot.
	SnapshotLoadError ErrorCode = "snapshot_load_error"
	// SnapshotRestoreError represents a snapshot that does not restore into a consistent state.
	SnapshotRestoreError ErrorCode = "snapshot_restore_error"
)

// Severity represents the severity level of an error.
type Severity string

const (
	// SeverityCritical indicates a critical error that requires immediate attention.
	SeverityCritical Severity = "critical"
	// SeverityHigh indicates a high severity error that should be addressed promptly.
	SeverityHigh Severity = "high"
	// SeverityMedium indicates a medium severity error that should be addressed in due course.
	SeverityMedium Severity = "medium"
	// SeverityLow indicates a low severity error that can be addressed at a later time.
	SeverityLow Severity = "low"
)
