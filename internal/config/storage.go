package config

const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

const (
	EnvConfigPath        = "POSTBOARD_CONFIG"
	EnvS3AccessKeyID     = "POSTBOARD_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "POSTBOARD_S3_SECRET_ACCESS_KEY"

	DefaultConfigPath = "config.yaml"
)
