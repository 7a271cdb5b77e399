package conf

const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Logger 日志配置
type Logger struct {
	Mode       string   `json:"mode" yaml:"mode"`
	AppName    string   `json:"app_name" yaml:"app_name"`
	Level      string   `json:"level" yaml:"level"`
	Directory  string   `json:"directory" yaml:"directory"`
	FormatJson bool     `json:"format_json" yaml:"format_json"`
	ErrorFile  bool     `json:"error_file" yaml:"error_file"`
	Sensitive  []string `json:"sensitive" yaml:"sensitive"`
	Rotate     *Rotate  `json:"rotate" yaml:"rotate"`
}

// Rotate 日志切割
type Rotate struct {
	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days"`
	Compress   bool `json:"compress" yaml:"compress"`
	LocalTime  bool `json:"local_time" yaml:"local_time"`
}

type Option func(*Logger)

func DefaultConfig(opts ...Option) *Logger {
	c := &Logger{
		Mode:      ModeDev,
		AppName:   "app",
		Level:     "debug",
		Directory: "./logs",
		Sensitive: []string{},
		Rotate: &Rotate{
			MaxSizeMB:  100,
			MaxBackups: 7,
			MaxAgeDays: 7,
			Compress:   true,
			LocalTime:  true,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func WithProduction() Option {
	return func(c *Logger) {
		c.Mode = ModeProd
		c.Level = "info"
	}
}

func WithAppName(name string) Option {
	return func(c *Logger) { c.AppName = name }
}

func WithLevel(level string) Option {
	return func(c *Logger) { c.Level = level }
}

func WithDirectory(dir string) Option {
	return func(c *Logger) { c.Directory = dir }
}

func WithFormatJson(enabled bool) Option {
	return func(c *Logger) { c.FormatJson = enabled }
}

func WithErrorFile(enabled bool) Option {
	return func(c *Logger) { c.ErrorFile = enabled }
}

func WithSensitive(keys ...string) Option {
	return func(c *Logger) { c.Sensitive = keys }
}
