// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Tika      TikaConfig      `mapstructure:"tika"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储会话存储后端的配置。
// URL 为空或无法识别时，回退到 SQLitePath 指向的嵌入式单文件库。
type DatabaseConfig struct {
	URL          string        `mapstructure:"url"`
	SQLitePath   string        `mapstructure:"sqlite_path"`
	QueryTimeout time.Duration `mapstructure:"query_timeout"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KnowledgeConfig 存储静态知识库文件的配置。
type KnowledgeConfig struct {
	Path string `mapstructure:"path"`
}

// TikaConfig 存储 Tika 服务器相关的配置。
type TikaConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// LLMConfig 存储大语言模型提供商的配置。
// API Key 不写入配置文件，统一从环境变量读取。
type LLMConfig struct {
	DefaultProvider string         `mapstructure:"default_provider"`
	OpenAI          ProviderConfig `mapstructure:"openai"`
	Claude          ProviderConfig `mapstructure:"claude"`
	Gemini          ProviderConfig `mapstructure:"gemini"`
	Ollama          ProviderConfig `mapstructure:"ollama"`
}

// ProviderConfig 是单个 LLM 提供商的连接配置。
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// QuizConfig 存储测验生成相关的配置。
type QuizConfig struct {
	NumQuestions int    `mapstructure:"num_questions"`
	Difficulty   string `mapstructure:"difficulty"`
}

// ChatConfig 存储对话上下文窗口相关的配置。
type ChatConfig struct {
	ContextPairs int `mapstructure:"context_pairs"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// DATABASE_URL 与 DEFAULT_LLM_PROVIDER 环境变量优先于文件内的同名配置。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.sqlite_path", "data/chat_history.db")
	viper.SetDefault("database.query_timeout", 5*time.Second)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("knowledge.path", "configs/knowledge_base.json")
	viper.SetDefault("llm.default_provider", "openai")
	viper.SetDefault("quiz.num_questions", 10)
	viper.SetDefault("quiz.difficulty", "medium")
	viper.SetDefault("chat.context_pairs", 5)

	_ = viper.BindEnv("database.url", "DATABASE_URL")
	_ = viper.BindEnv("llm.default_provider", "DEFAULT_LLM_PROVIDER")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
