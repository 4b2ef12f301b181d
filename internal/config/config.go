package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "config.yml"

type Config struct {
	Env                    string             `yaml:"env" env:"APP_ENV" env-default:"development"`
	RabbitMQ               RabbitMQConfig     `yaml:"rabbitmq"`
	Firebase               FirebaseConfig     `yaml:"firebase"`
	APNS                   APNSConfig         `yaml:"apns"`
	Redis                  RedisConfig        `yaml:"redis"`
	TokenService           TokenServiceConfig `yaml:"token_service"`
	Log                    LogConfig          `yaml:"log"`
	PushQueueName          string             `yaml:"push_queue_name" env:"PUSH_QUEUE_NAME" env-default:"push_notifications"`
	TokenDeletionQueueName string             `yaml:"token_deletion_queue_name" env:"TOKEN_DELETION_QUEUE_NAME" env-default:"device_token_deletions"`
	WorkerConcurrency      int                `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"1"` // 1 - сообщения обрабатываются строго по одному
	ProcessTimeout         time.Duration      `yaml:"process_timeout" env:"PROCESS_TIMEOUT" env-default:"30s"`
	PresenceTTL            time.Duration      `yaml:"presence_ttl" env:"PRESENCE_TTL" env-default:"2m"`
	HTTPPort               string             `yaml:"http_port" env:"HTTP_PORT" env-default:"8088"`
	InterServiceSecret     string             `yaml:"inter_service_secret" env:"INTER_SERVICE_SECRET"` // Ключ HS256 для межсервисных JWT (входящих и исходящих)
}

type RabbitMQConfig struct {
	URI string `yaml:"uri" env:"RABBITMQ_URI" env-required:"true"`
}

// FirebaseConfig - статичная конфигурация проекта Firebase.
// Для релея значения непрозрачны, их читает только Firebase SDK.
type FirebaseConfig struct {
	APIKey            string `yaml:"api_key" env:"FIREBASE_API_KEY"`
	AuthDomain        string `yaml:"auth_domain" env:"FIREBASE_AUTH_DOMAIN"`
	ProjectID         string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	StorageBucket     string `yaml:"storage_bucket" env:"FIREBASE_STORAGE_BUCKET"`
	MessagingSenderID string `yaml:"messaging_sender_id" env:"FIREBASE_MESSAGING_SENDER_ID"`
	AppID             string `yaml:"app_id" env:"FIREBASE_APP_ID"`
	MeasurementID     string `yaml:"measurement_id" env:"FIREBASE_MEASUREMENT_ID"`
	CredentialsPath   string `yaml:"credentials_path" env:"FCM_CREDENTIALS_PATH"` // Путь к файлу ключа сервис-аккаунта
}

// Enabled сообщает, хватает ли конфигурации для создания клиента FCM.
func (c FirebaseConfig) Enabled() bool {
	return c.CredentialsPath != ""
}

type APNSConfig struct {
	KeyID      string `yaml:"key_id" env:"APNS_KEY_ID"`
	TeamID     string `yaml:"team_id" env:"APNS_TEAM_ID"`
	KeyPath    string `yaml:"key_path" env:"APNS_KEY_PATH"`
	Topic      string `yaml:"topic" env:"APNS_TOPIC"`
	Production bool   `yaml:"production" env:"APNS_PRODUCTION" env-default:"false"`
}

// Enabled сообщает, заполнены ли все обязательные поля APNS.
func (c APNSConfig) Enabled() bool {
	return c.KeyPath != "" && c.KeyID != "" && c.TeamID != "" && c.Topic != ""
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"` // Пусто - трекер присутствия отключен
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type TokenServiceConfig struct {
	URL     string        `yaml:"url" env:"TOKEN_SERVICE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TOKEN_SERVICE_TIMEOUT" env-default:"10s"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// LoadConfig загружает конфигурацию из файла (CONFIG_PATH или config.yml),
// а при его отсутствии - только из переменных окружения.
func LoadConfig() (*Config, error) {
	// .env нужен только для локальной разработки, его отсутствие не ошибка
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	return loadFrom(configPath)
}

func loadFrom(configPath string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v. Попытка чтения из переменных окружения.", configPath, err)
		cfg = Config{}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Конфигурация загружена. Push Queue: %s, Workers: %d", cfg.PushQueueName, cfg.WorkerConcurrency)
	return &cfg, nil
}

func (c *Config) validate() error {
	// env-required проверяет только наличие переменной, пустое значение его проходит
	if strings.TrimSpace(c.RabbitMQ.URI) == "" {
		return fmt.Errorf("RABBITMQ_URI не может быть пустым")
	}
	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("WORKER_CONCURRENCY должен быть >= 1, получено %d", c.WorkerConcurrency)
	}
	if c.ProcessTimeout <= 0 {
		return fmt.Errorf("PROCESS_TIMEOUT должен быть положительным")
	}
	if c.PresenceTTL <= 0 {
		return fmt.Errorf("PRESENCE_TTL должен быть положительным")
	}
	if c.Firebase.Enabled() && c.Firebase.ProjectID == "" {
		log.Printf("Предупреждение: FIREBASE_PROJECT_ID не задан, project id будет взят из ключа сервис-аккаунта")
	}
	return nil
}
