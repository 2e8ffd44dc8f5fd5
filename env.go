package terrastore

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by ConfigFromEnv.
const EnvPrefix = "DATA_STORE"

// Configuration keys. Each maps to the environment variable
// DATA_STORE_<KEY> in upper case.
const (
	KeyType            = "type"
	KeyPath            = "path"
	KeyMaxSize         = "max_size"
	KeyRemoteProvider  = "remote_provider"
	KeyBucket          = "bucket"
	KeyFolder          = "folder"
	KeyEndpoint        = "endpoint"
	KeyRegion          = "region"
	KeyAccessKey       = "access_key"
	KeySecretKey       = "secret_key"
	KeyUseSSL          = "use_ssl"
	KeyCredentialsFile = "credentials_file"
	KeyAccountName     = "account_name"
	KeyAccountKey      = "account_key"
	KeyRateLimit       = "rate_limit"
	KeyMaxConcurrent   = "max_concurrent"
)

// NewViper returns a viper instance bound to the DATA_STORE_ environment
// with the backend defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the defaults: the local backend at DefaultLocalDir.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyType, string(KindLocal))
	v.SetDefault(KeyPath, DefaultLocalDir)
	v.SetDefault(KeyUseSSL, true)
}

// ConfigFromEnv resolves a Config from DATA_STORE_* environment variables.
// With nothing set it selects the local backend at DefaultLocalDir.
func ConfigFromEnv() (Config, error) {
	return ConfigFromViper(NewViper())
}

// ConfigFromViper resolves a Config from v. Flags, config files and the
// environment bound to v are all honored.
func ConfigFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	switch Kind(strings.ToLower(strings.TrimSpace(v.GetString(KeyType)))) {
	case KindLocal, "":
		dir := v.GetString(KeyPath)
		if dir == "" {
			dir = DefaultLocalDir
		}
		cfg = Local(dir)
	case KindMemory:
		cfg = Memory(v.GetInt64(KeyMaxSize))
	case KindRemote:
		cfg = Remote(RemoteSettings{
			Provider:          ProviderKind(strings.ToLower(v.GetString(KeyRemoteProvider))),
			Bucket:            v.GetString(KeyBucket),
			Folder:            v.GetString(KeyFolder),
			Endpoint:          v.GetString(KeyEndpoint),
			Region:            v.GetString(KeyRegion),
			AccessKey:         v.GetString(KeyAccessKey),
			SecretKey:         v.GetString(KeySecretKey),
			UseSSL:            v.GetBool(KeyUseSSL),
			CredentialsFile:   v.GetString(KeyCredentialsFile),
			AccountName:       v.GetString(KeyAccountName),
			AccountKey:        v.GetString(KeyAccountKey),
			RequestsPerSecond: v.GetFloat64(KeyRateLimit),
			MaxConcurrent:     v.GetInt64(KeyMaxConcurrent),
		})
	default:
		cfg = Config{Kind: Kind(v.GetString(KeyType))}
	}
	return cfg, cfg.Validate()
}
