package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"mashalpipes.in/Website/pkg/config"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMongo    = "mongo"

	StorageDriverDisk   = "disk"
	StorageDriverAzBlob = "azblob"
	StorageDriverFTP    = "ftp"
)

type ImgConfig struct {
	config.GlobalConfig
	StoreDriver     string
	DatabaseURL     string
	MongoDatabase   string
	StorageDriver   string
	UploadDir       string
	UploadURLPrefix string
	APIPrefix       string
	MaxUploadBytes  int64
	AllowedOrigins  []string
	AzureBlob       AzureBlobConfig
	FTP             FTPConfig
}

type AzureBlobConfig struct {
	ConnectionString string
	ContainerName    string
}

type FTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Dir      string
}

func LoadImgConfig() *ImgConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	conf := &ImgConfig{
		GlobalConfig:    *config.LoadGlobalConfig(),
		StoreDriver:     strings.ToLower(config.GetEnvOrDefault("STORE_DRIVER", StoreDriverPostgres)),
		MongoDatabase:   config.GetEnvOrDefault("MONGO_DATABASE", "mashal"),
		StorageDriver:   strings.ToLower(config.GetEnvOrDefault("STORAGE_DRIVER", StorageDriverDisk)),
		UploadDir:       config.GetEnvOrDefault("UPLOAD_DIR", "uploads"),
		UploadURLPrefix: "/" + strings.Trim(config.GetEnvOrDefault("UPLOAD_URL_PREFIX", "/uploads"), "/"),
		APIPrefix:       "/" + strings.Trim(config.GetEnvOrDefault("API_PREFIX", "/api"), "/"),
		MaxUploadBytes:  config.GetEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		AllowedOrigins:  config.GetEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
	// uploads are matched as <prefix>/:name, so the prefix needs its own segment
	if conf.UploadURLPrefix == "/" || conf.UploadURLPrefix == conf.APIPrefix {
		panic("invalid UPLOAD_URL_PREFIX: " + conf.UploadURLPrefix)
	}

	switch conf.StoreDriver {
	case StoreDriverSQLite:
		conf.DatabaseURL = config.GetEnvOrDefault("DATABASE_URL", "images.db")
	case StoreDriverPostgres, StoreDriverMongo:
		conf.DatabaseURL = config.GetEnv("DATABASE_URL")
	default:
		panic("unsupported STORE_DRIVER: " + conf.StoreDriver)
	}

	switch conf.StorageDriver {
	case StorageDriverDisk:
	case StorageDriverAzBlob:
		conf.AzureBlob = AzureBlobConfig{
			ConnectionString: config.GetEnv("AZURE_STORAGE_CONNECTION_STRING"),
			ContainerName:    config.GetEnv("BLOB_CONTAINER_NAME"),
		}
	case StorageDriverFTP:
		conf.FTP = FTPConfig{
			Host:     config.GetEnv("FTP_HOST"),
			Port:     config.GetEnvOrDefault("FTP_PORT", "21"),
			User:     config.GetEnv("FTP_USER"),
			Password: config.GetEnv("FTP_PASSWORD"),
			Dir:      config.GetEnvOrDefault("FTP_DIR", "uploads"),
		}
	default:
		panic("unsupported STORAGE_DRIVER: " + conf.StorageDriver)
	}
	return conf
}
