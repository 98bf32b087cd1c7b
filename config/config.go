package config

import (
	"fmt"
	"strings"
	"time"

	"TaskPilotGo/models"

	"github.com/spf13/viper"
)

// Config 存储所有配置信息
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	Timezone    string `mapstructure:"APP_TIMEZONE"`
	LogDir      string `mapstructure:"LOG_DIR"`

	// 数据库配置
	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`
	DBLogLevel string `mapstructure:"DB_LOG_LEVEL"`

	// Redis配置
	RedisEnabled  bool   `mapstructure:"REDIS_ENABLED"`
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// JWT配置
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// 压力分数权重
	StressWOverdue   float64 `mapstructure:"STRESS_W_OVERDUE"`
	StressWWIP       float64 `mapstructure:"STRESS_W_WIP"`
	StressWUrgent    float64 `mapstructure:"STRESS_W_URGENT"`
	StressWDoneToday float64 `mapstructure:"STRESS_W_DONE_TODAY"`
}

func setDefaults(v *viper.Viper) {
	weights := models.DefaultStressWeights()

	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("APP_TIMEZONE", "UTC")
	v.SetDefault("LOG_DIR", "logs")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "taskpilot")
	v.SetDefault("DB_PATH", "taskpilot.db")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("STRESS_W_OVERDUE", weights.Overdue)
	v.SetDefault("STRESS_W_WIP", weights.WIP)
	v.SetDefault("STRESS_W_URGENT", weights.Urgent)
	v.SetDefault("STRESS_W_DONE_TODAY", weights.DoneToday)
}

// LoadConfig 从环境变量或配置文件加载配置
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	setDefaults(v)

	v.AutomaticEnv()

	err = v.ReadInConfig()
	if err != nil {
		// 允许配置文件不存在，此时会从环境变量中读取
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetDBConnString 返回数据库连接字符串
func (c *Config) GetDBConnString() string {
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	case "sqlite":
		return c.DBPath
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
}

// GetRedisConnString 返回Redis连接字符串
func (c *Config) GetRedisConnString() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// StressWeights 返回压力分数权重
func (c *Config) StressWeights() models.StressWeights {
	return models.StressWeights{
		Overdue:   c.StressWOverdue,
		WIP:       c.StressWWIP,
		Urgent:    c.StressWUrgent,
		DoneToday: c.StressWDoneToday,
	}
}

// Location 返回用于计算“今天”和“本周”的时区
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// AllowedOrigins 解析逗号分隔的 CORS 来源
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
