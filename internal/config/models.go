package config

import "time"

// TopLevel wraps the App config under a namespacing key so that env var
// overrides play nicely with viper.Unmarshal
type TopLevel struct {
	Submitd Submitd `json:"submitd" mapstructure:"submitd"`
}

type Submitd struct {
	Server App `json:"server" mapstructure:"server"`
}

type App struct {
	BindAddress     string              `json:"bind_address" mapstructure:"bind_address"`
	ShutdownTimeout time.Duration       `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	Elasticsearch   ElasticsearchClient `json:"elasticsearch" mapstructure:"elasticsearch"`
	Redis           RedisClient         `json:"redis" mapstructure:"redis"`
	Nats            NatsClient          `json:"nats" mapstructure:"nats"`
	Rabbit          RabbitClient        `json:"rabbit" mapstructure:"rabbit"`
	Notifier        *Notifier           `json:"notifier,omitempty" mapstructure:"notifier"`
	ApmClient       *ApmClient          `json:"apm,omitempty" mapstructure:"apm"`
	Auth            *Auth               `json:"auth,omitempty" mapstructure:"auth"`
	Logging         *Logging            `json:"logging,omitempty" mapstructure:"logging"`
	Ingestion       Ingestion           `json:"ingestion" mapstructure:"ingestion"`
	Submissions     Submissions         `json:"submissions" mapstructure:"submissions"`
	DeadLetters     DeadLetters         `json:"dead_letters" mapstructure:"dead_letters"`
	Analytics       Analytics           `json:"analytics" mapstructure:"analytics"`
}

type Logging struct {
	Json  *bool   `json:"json,omitempty" mapstructure:"json"`
	File  *string `json:"file,omitempty" mapstructure:"file"`
	Level *string `json:"level,omitempty" mapstructure:"level"`
}

type ElasticsearchClient struct {
	Addresses []string       `json:"addresses" mapstructure:"addresses"`
	User      *BasicAuthUser `json:"user,omitempty" mapstructure:"user"`
}

type RedisClient struct {
	Address  string `json:"address" mapstructure:"address"`
	Password string `json:"password" mapstructure:"password"`
	Db       int    `json:"db" mapstructure:"db"`
}

type NatsClient struct {
	Address string `json:"address" mapstructure:"address"`
	Subject string `json:"subject" mapstructure:"subject"`
}

type RabbitClient struct {
	Uri   string `json:"uri" mapstructure:"uri"`
	Queue string `json:"queue" mapstructure:"queue"`
}

// Notifier is the optional human-readable notification channel. When absent,
// the fan-out publisher simply runs without a notification sink.
type Notifier struct {
	Channel string `json:"channel" mapstructure:"channel"`
}

type ApmClient struct {
	Address     *string `json:"address,omitempty" mapstructure:"address"`
	SecretToken *string `json:"secret_token,omitempty" mapstructure:"secret_token"`
}

type Ingestion struct {
	Defaults IngestionDefaults `json:"defaults" mapstructure:"defaults"`
}

type IngestionDefaults struct {
	RateLimitQuota     uint          `json:"rate_limit_quota" mapstructure:"rate_limit_quota"`
	RateLimitWindow    time.Duration `json:"rate_limit_window" mapstructure:"rate_limit_window"`
	ProhibitedTerms    []string      `json:"prohibited_terms" mapstructure:"prohibited_terms"`
	ConflictRetryTimes uint          `json:"conflict_retry_times" mapstructure:"conflict_retry_times"`
	ListMaxSize        uint          `json:"list_max_size" mapstructure:"list_max_size"`
	ProcessorName      string        `json:"processor_name" mapstructure:"processor_name"`
}

type Submissions struct {
	Index string `json:"index" mapstructure:"index"`
}

type DeadLetters struct {
	Index          string        `json:"index" mapstructure:"index"`
	RetryInterval  time.Duration `json:"retry_interval" mapstructure:"retry_interval"`
	RetryBatchSize uint          `json:"retry_batch_size" mapstructure:"retry_batch_size"`
}

type Analytics struct {
	Index string `json:"index" mapstructure:"index"`
}

type Auth struct {
	BasicAuth []BasicAuthUser `json:"basic_auth" mapstructure:"basic_auth"`
}

type BasicAuthUser struct {
	Name     string `json:"name" mapstructure:"name"`
	Password string `json:"password" mapstructure:"password"`
}
