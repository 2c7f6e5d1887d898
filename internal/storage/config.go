package storage

import "os"

// Backend selects the Store implementation
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendDisk     Backend = "disk"
	BackendDynamo   Backend = "dynamo"
	BackendPostgres Backend = "postgres"
)

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode       DynamoMode
	Endpoint   string // for local mode
	Region     string
	CallsTable string
}

// LoadDynamoConfig loads DynamoDB config from environment
func LoadDynamoConfig() DynamoConfig {
	mode := DynamoMode(getEnv("DYNAMO_MODE", string(DynamoModeLocal)))
	if mode != DynamoModeAWS {
		mode = DynamoModeLocal
	}

	return DynamoConfig{
		Mode:       mode,
		Endpoint:   getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
		Region:     getEnv("DYNAMO_REGION", "eu-central-1"),
		CallsTable: getEnv("DYNAMO_CALLS_TABLE", "workforce-calls"),
	}
}

// Options carries what NewStore needs for every backend
type Options struct {
	Backend     Backend
	DiskPath    string
	DatabaseURL string
	Dynamo      DynamoConfig
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
