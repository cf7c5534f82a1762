package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"pizzeria-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	HTTPPort string
	GRPCPort string
	DB       DB
	Redis    Redis
	Kafka    Kafka
	JWT      JWT
	Order    Order
	Cleanup  Cleanup
}

type DB struct {
	database.Config
}

type Redis struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	TTLSeconds int
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type JWT struct {
	Secret    string
	Issuer    string
	Audience  string
	AccessExp time.Duration
}

type Order struct {
	AutoDeliver bool
	BcryptCost  int
}

type Cleanup struct {
	Enabled           bool
	CanceledRetention time.Duration
	CartIdle          time.Duration
	Interval          time.Duration
}

type Notifier struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPSSL      bool

	TMPLDir string

	KafkaBrokers []string
	KafkaGroupID string
	KafkaTopic   string
}

func Load(log *zap.Logger) *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", log),
		GRPCPort: getEnvDefault("GRPC_PORT", ""),
		DB: DB{
			Config: loadDB(log),
		},
		Redis: Redis{
			Enabled:    getEnvBool("REDIS_ENABLED", false),
			Addr:       getEnvDefault("REDIS_ADDR", "localhost:6379"),
			Password:   getEnvDefault("REDIS_PASSWORD", ""),
			DB:         atoiDefault(getEnvDefault("REDIS_DB", "0"), 0),
			TTLSeconds: atoiDefault(getEnvDefault("CACHE_TTL_SECONDS", "300"), 300),
		},
		Kafka: LoadKafka(),
		JWT: JWT{
			Secret:    getEnv("JWT_SECRET", log),
			Issuer:    getEnvDefault("JWT_ISSUER", "pizzeria"),
			Audience:  getEnvDefault("JWT_AUDIENCE", "pizzeria-api"),
			AccessExp: parseDurationWithDays(getEnvDefault("ACCESS_EXP", "1h")),
		},
		Order: Order{
			AutoDeliver: getEnvBool("ORDER_AUTO_DELIVER", true),
			BcryptCost:  atoiDefault(getEnvDefault("BCRYPT_COST", "0"), 0),
		},
		Cleanup: LoadCleanup(),
	}
}

func LoadCleanup() Cleanup {
	return Cleanup{
		Enabled:           getEnvBool("CLEANUP_ENABLED", false),
		CanceledRetention: parseDurationWithDays(getEnvDefault("CANCELED_RETENTION", "30d")),
		CartIdle:          parseDurationWithDays(getEnvDefault("CART_IDLE", "2d")),
		Interval:          parseDurationWithDays(getEnvDefault("CLEANUP_INTERVAL", "1h")),
	}
}

func LoadKafka() Kafka {
	return Kafka{
		Brokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		Topic:   getEnvDefault("ORDER_EVENTS_TOPIC", "pizzeria.orders"),
	}
}

// LoadDB нужен утилитам, которым кроме базы ничего не требуется (migrate).
func LoadDB(log *zap.Logger) DB {
	return DB{Config: loadDB(log)}
}

func LoadNotifier(log *zap.Logger) *Notifier {
	return &Notifier{
		SMTPHost:     getEnv("SMTP_HOST", log),
		SMTPPort:     getEnvInt("SMTP_PORT", log),
		SMTPUser:     getEnv("SMTP_USER", log),
		SMTPPassword: getEnv("SMTP_PASSWORD", log),
		SMTPFrom:     getEnv("SMTP_FROM", log),
		SMTPSSL:      getEnvBool("SMTP_SSL", true),
		TMPLDir:      getEnvDefault("TMPL_DIR", "templates"),
		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaGroupID: getEnvDefault("KAFKA_GROUP_ID", "pizzeria-notifier"),
		KafkaTopic:   getEnvDefault("ORDER_EVENTS_TOPIC", "pizzeria.orders"),
	}
}

func loadDB(log *zap.Logger) database.Config {
	return database.Config{
		Host:             getEnv("DB_HOST", log),
		Port:             getEnv("DB_PORT", log),
		User:             getEnv("DB_USER", log),
		Password:         getEnv("DB_PASSWORD", log),
		Name:             getEnv("DB_NAME", log),
		SSLMode:          getEnvDefault("DB_SSLMODE", "disable"),
		MaxOpenConns:     atoiDefault(getEnvDefault("DB_MAX_OPEN_CONNS", "20"), 20),
		MaxIdleConns:     atoiDefault(getEnvDefault("DB_MAX_IDLE_CONNS", "5"), 5),
		ConnMaxLifetime:  parseDurationWithDays(getEnvDefault("DB_CONN_MAX_LIFETIME", "30m")),
		StatementTimeout: parseDurationWithDays(getEnvDefault("DB_STATEMENT_TIMEOUT", "5s")),
	}
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

// getEnvBool понимает всё, что принимает strconv.ParseBool (1, t, TRUE, false, ...).
// Нераспознанное значение даёт def.
func getEnvBool(key string, def bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(val) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		log.Printf("Некорректное булево значение %s=%q, используется %v", key, val, def)
		return def
	}
	return b
}

func getEnvInt(key string, log *zap.Logger) int {
	valStr := getEnv(key, log)
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Error("Ошибка преобразования переменной окружения в int", zap.String("key", key), zap.Error(err))
		panic("invalid int value for environment variable: " + key)
	}
	return val
}

func parseDurationWithDays(s string) time.Duration {
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			log.Printf("Ошибка парсинга длительности %q: %v", s, err)
			return 0
		}
		return time.Duration(days) * 24 * time.Hour
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return duration
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
