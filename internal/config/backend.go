package config

import (
    "errors"
    "fmt"
    "io/fs"
    "strings"

    "github.com/spf13/viper"

    "github.com/iliyamo/space-reservation/internal/database"
    "github.com/iliyamo/space-reservation/internal/repository"
)

// MySQLConfig is the "mysql" section of the backend file.
type MySQLConfig struct {
    User     string `mapstructure:"user"`
    Password string `mapstructure:"password"`
    Host     string `mapstructure:"host"`
    Port     string `mapstructure:"port"`
    Name     string `mapstructure:"name"`
}

// DynamoDBConfig is the "dynamodb" section of the backend file.
type DynamoDBConfig struct {
    Region          string `mapstructure:"region"`
    Endpoint        string `mapstructure:"endpoint"`
    TablePrefix     string `mapstructure:"table_prefix"`
    AccessKeyID     string `mapstructure:"access_key_id"`
    SecretAccessKey string `mapstructure:"secret_access_key"`
}

// BackendConfig is the persisted backend selection file.  Every key can be
// overridden by an environment variable prefixed SPACES_, with dots
// replaced by underscores (SPACES_BACKEND, SPACES_MYSQL_HOST...).
type BackendConfig struct {
    Backend  string         `mapstructure:"backend"`
    MySQL    MySQLConfig    `mapstructure:"mysql"`
    DynamoDB DynamoDBConfig `mapstructure:"dynamodb"`
}

// ErrUnknownBackend is returned for a backend name other than mysql or dynamodb.
var ErrUnknownBackend = errors.New("unknown backend")

func setBackendDefaults(v *viper.Viper) {
    v.SetDefault("backend", repository.BackendMySQL)
    v.SetDefault("mysql.user", "root")
    v.SetDefault("mysql.password", "")
    v.SetDefault("mysql.host", "127.0.0.1")
    v.SetDefault("mysql.port", "3306")
    v.SetDefault("mysql.name", "spaces")
    v.SetDefault("dynamodb.region", "us-east-1")
    v.SetDefault("dynamodb.endpoint", "")
    v.SetDefault("dynamodb.table_prefix", "spaces_")
    v.SetDefault("dynamodb.access_key_id", "")
    v.SetDefault("dynamodb.secret_access_key", "")
}

func newViper(path string) *viper.Viper {
    v := viper.New()
    v.SetConfigFile(path)
    v.SetConfigType("json")
    setBackendDefaults(v)
    return v
}

func readFile(v *viper.Viper) error {
    err := v.ReadInConfig()
    var notFound viper.ConfigFileNotFoundError
    if err == nil || errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
        return nil
    }
    return fmt.Errorf("read %s: %w", v.ConfigFileUsed(), err)
}

// LoadBackend reads the backend file at path, applying defaults for a
// missing file and environment overrides on top.
func LoadBackend(path string) (BackendConfig, error) {
    v := newViper(path)
    v.SetEnvPrefix("SPACES")
    v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
    v.AutomaticEnv()
    if err := readFile(v); err != nil {
        return BackendConfig{}, err
    }

    var cfg BackendConfig
    if err := v.Unmarshal(&cfg); err != nil {
        return BackendConfig{}, fmt.Errorf("decode %s: %w", path, err)
    }
    cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
    if err := ValidateBackend(cfg.Backend); err != nil {
        return BackendConfig{}, err
    }
    return cfg, nil
}

// ValidateBackend rejects names other than mysql and dynamodb.
func ValidateBackend(name string) error {
    switch name {
    case repository.BackendMySQL, repository.BackendDynamoDB:
        return nil
    }
    return fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, name, repository.BackendMySQL, repository.BackendDynamoDB)
}

// SetBackend rewrites the backend key of the file at path, creating the
// file with defaults when it does not exist.  Environment overrides are
// not persisted.
func SetBackend(path, name string) error {
    name = strings.ToLower(strings.TrimSpace(name))
    if err := ValidateBackend(name); err != nil {
        return err
    }
    v := newViper(path)
    if err := readFile(v); err != nil {
        return err
    }
    v.Set("backend", name)
    if err := v.WriteConfigAs(path); err != nil {
        return fmt.Errorf("write %s: %w", path, err)
    }
    return nil
}

// MySQLParams converts the mysql section for database.OpenMySQL.
func (c BackendConfig) MySQLParams() database.MySQLParams {
    return database.MySQLParams{
        User:     c.MySQL.User,
        Password: c.MySQL.Password,
        Host:     c.MySQL.Host,
        Port:     c.MySQL.Port,
        Name:     c.MySQL.Name,
    }
}

// DynamoParams converts the dynamodb section for database.OpenDynamo.
func (c BackendConfig) DynamoParams() database.DynamoParams {
    return database.DynamoParams{
        Region:          c.DynamoDB.Region,
        Endpoint:        c.DynamoDB.Endpoint,
        AccessKeyID:     c.DynamoDB.AccessKeyID,
        SecretAccessKey: c.DynamoDB.SecretAccessKey,
    }
}
