package common

import (
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/op/go-logging"
	"github.com/tunevault/library-services/network"
	"github.com/tunevault/library-services/util/logger"
)

// Context is the composition root. It's constructed once at startup
// and passed by reference into the engine and managers, so there is
// exactly one S3 client per backing account for the life of the
// process.
type Context struct {
	Config        *Config
	Logger        *logging.Logger
	CatalogClient *network.CatalogClient
	RedisClient   *network.RedisClient
	StoreClient   *network.StoreClient
	S3Clients     map[string]*minio.Client
}

func NewContext() *Context {
	config := NewConfig()
	_logger := getLogger(config)
	s3Clients := getS3Clients(config)
	return &Context{
		Config:        config,
		Logger:        _logger,
		CatalogClient: getCatalogClient(config, _logger),
		RedisClient:   getRedisClient(config),
		StoreClient:   getStoreClient(config, s3Clients, _logger),
		S3Clients:     s3Clients,
	}
}

func getLogger(config *Config) *logging.Logger {
	_logger, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return _logger
}

func getCatalogClient(config *Config, logger *logging.Logger) *network.CatalogClient {
	client, err := network.NewCatalogClient(
		config.CatalogURL,
		config.CatalogAPIVersion,
		config.CatalogAPIKey,
		logger)
	if err != nil {
		msg := fmt.Sprintf("Could not initialize catalog client: %v", err)
		panic(msg)
	}
	return client
}

func getRedisClient(config *Config) *network.RedisClient {
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}

func getStoreClient(config *Config, s3Clients map[string]*minio.Client, logger *logging.Logger) *network.StoreClient {
	clients := make(map[string]network.S3Client, len(s3Clients))
	for provider, client := range s3Clients {
		clients[provider] = client
	}
	client, err := network.NewStoreClient(clients, config.StorageBuckets, logger)
	if err != nil {
		msg := fmt.Sprintf("Could not initialize store client: %v", err)
		panic(msg)
	}
	return client
}

func getS3Clients(config *Config) map[string]*minio.Client {
	s3Clients := make(map[string]*minio.Client, len(config.S3Credentials))
	useSSL := true
	if config.ConfigName == "dev" || config.ConfigName == "test" {
		useSSL = false // talking to localhost in dev and test
	}
	for provider, creds := range config.S3Credentials {
		client, err := minio.New(
			creds.Host,
			&minio.Options{
				Creds:  credentials.NewStaticV4(creds.KeyID, creds.SecretKey, ""),
				Secure: useSSL,
			})
		if err != nil {
			panic(err)
		}
		s3Clients[provider] = client
	}
	return s3Clients
}
