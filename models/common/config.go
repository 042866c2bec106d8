package common

import (
	"fmt"
	"os"
	"time"

	"github.com/op/go-logging"
	"github.com/spf13/viper"
	"github.com/tunevault/library-services/constants"
	"github.com/tunevault/library-services/models/service"
	"github.com/tunevault/library-services/util"
)

type S3Credentials struct {
	Host      string
	KeyID     string
	SecretKey string
}

type Config struct {
	AdminAPIKey       string
	BaseWorkingDir    string
	CatalogAPIKey     string
	CatalogAPIVersion string
	CatalogURL        string
	ConfigName        string
	ListenPort        int
	LogDir            string
	LogLevel          logging.Level
	PidFileDir        string
	RedisDefaultDB    int
	RedisPassword     string
	RedisURL          string
	S3Credentials     map[string]S3Credentials
	SnapshotMaxAge    time.Duration
	StorageBuckets    []*service.StorageBucket
	UploadMaxBytes    int64
	SiegfriedSigFile  string
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// Returns a new config based on ENV vars LIBRARY_CONFIG_DIR and
// LIBRARY_ENV.
func NewConfig() *Config {
	config := loadConfig()
	config.expandPaths()
	config.sanityCheck()
	config.makeDirs()
	return config
}

func loadConfig() *Config {
	configDir, envName := getEnvVars()
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	err := v.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	return &Config{
		AdminAPIKey:       v.GetString("ADMIN_API_KEY"),
		BaseWorkingDir:    v.GetString("BASE_WORKING_DIR"),
		CatalogAPIKey:     v.GetString("CATALOG_API_KEY"),
		CatalogAPIVersion: v.GetString("CATALOG_API_VERSION"),
		CatalogURL:        v.GetString("CATALOG_URL"),
		ConfigName:        envName,
		ListenPort:        v.GetInt("LISTEN_PORT"),
		LogDir:            v.GetString("LOG_DIR"),
		LogLevel:          logLevels[v.GetString("LOG_LEVEL")],
		PidFileDir:        v.GetString("PID_FILE_DIR"),
		RedisDefaultDB:    v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisURL:          v.GetString("REDIS_URL"),
		S3Credentials: map[string]S3Credentials{
			constants.S3ClientPrimary: {
				Host:      v.GetString("S3_PRIMARY_HOST"),
				KeyID:     v.GetString("S3_PRIMARY_KEY"),
				SecretKey: v.GetString("S3_PRIMARY_SECRET"),
			},
			constants.S3ClientOverflow: {
				Host:      v.GetString("S3_OVERFLOW_HOST"),
				KeyID:     v.GetString("S3_OVERFLOW_KEY"),
				SecretKey: v.GetString("S3_OVERFLOW_SECRET"),
			},
		},
		SnapshotMaxAge:   v.GetDuration("SNAPSHOT_MAX_AGE"),
		SiegfriedSigFile: v.GetString("SIEGFRIED_SIG_FILE"),
		UploadMaxBytes:   v.GetInt64("UPLOAD_MAX_BYTES"),
		StorageBuckets: []*service.StorageBucket{
			{
				AccountNumber:  1,
				Bucket:         v.GetString("S3_PRIMARY_BUCKET"),
				Description:    "Primary audio bucket",
				Host:           v.GetString("S3_PRIMARY_HOST"),
				Provider:       constants.S3ClientPrimary,
				PublicBaseURL:  v.GetString("S3_PRIMARY_PUBLIC_URL"),
				ThresholdBytes: v.GetInt64("S3_PRIMARY_THRESHOLD_BYTES"),
			},
			{
				AccountNumber:  2,
				Bucket:         v.GetString("S3_OVERFLOW_BUCKET"),
				Description:    "Overflow audio bucket",
				Host:           v.GetString("S3_OVERFLOW_HOST"),
				Provider:       constants.S3ClientOverflow,
				PublicBaseURL:  v.GetString("S3_OVERFLOW_PUBLIC_URL"),
				ThresholdBytes: v.GetInt64("S3_OVERFLOW_THRESHOLD_BYTES"),
			},
		},
	}
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("LIBRARY_CONFIG_DIR")
	envName := getRequiredEnvVar("LIBRARY_ENV")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// BucketFor returns the storage bucket with the given account number.
func (c *Config) BucketFor(accountNumber int) *service.StorageBucket {
	for _, b := range c.StorageBuckets {
		if b.AccountNumber == accountNumber {
			return b
		}
	}
	return nil
}

// BucketAndKeyFor resolves a song locator URL to the bucket hosting it
// and the object key within that bucket. Returns an error if the URL
// does not belong to any configured bucket.
func (c *Config) BucketAndKeyFor(url string) (bucket *service.StorageBucket, key string, err error) {
	for _, b := range c.StorageBuckets {
		if b.HostsURL(url) {
			return b, url[len(b.URLFor("")):], nil
		}
	}
	return nil, "", fmt.Errorf("no configured bucket hosts url %s", url)
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() {
	c.BaseWorkingDir = expandPath(c.BaseWorkingDir)
	c.LogDir = expandPath(c.LogDir)
	c.PidFileDir = expandPath(c.PidFileDir)
}

func expandPath(dirName string) string {
	dir, err := util.ExpandTilde(dirName)
	if err != nil {
		panic(err)
	}
	return dir
}

// A bucket without a public base URL would make every record stored
// there unclassifiable, so refuse to start. Missing credentials fail
// the same way: we'd rather not come up at all than silently skip a
// bucket during a scan.
func (c *Config) sanityCheck() {
	if c.CatalogURL == "" {
		panic("Config is missing CATALOG_URL")
	}
	for _, b := range c.StorageBuckets {
		if b.Bucket == "" || b.PublicBaseURL == "" {
			panic(fmt.Sprintf("Config for bucket account %d is missing bucket name or public URL", b.AccountNumber))
		}
		creds := c.S3Credentials[b.Provider]
		if creds.Host == "" || creds.KeyID == "" {
			panic(fmt.Sprintf("Config is missing S3 credentials for provider %s", b.Provider))
		}
	}
}

func (c *Config) makeDirs() error {
	dirs := []string{
		c.BaseWorkingDir,
		c.LogDir,
		c.PidFileDir,
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			panic(err)
		}
	}
	return nil
}
