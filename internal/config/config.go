package config

import (
	"io"
	"log/slog"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

const (
	DefaultAccountsURL = "https://api.innohassle.ru/accounts/v0"
	DefaultListen      = ":8000"
)

type Config struct {
	Accounts    Accounts `yaml:"accounts" json:"accounts"`
	Omnidesk    Omnidesk `yaml:"omnidesk" json:"omnidesk"`
	AppRootPath string   `yaml:"app_root_path" json:"app_root_path"`
	Server      Server   `yaml:"server" json:"server"`
}

type Accounts struct {
	APIURL      string `yaml:"api_url" json:"api_url"`
	APIJWTToken string `yaml:"api_jwt_token" json:"api_jwt_token"`
}

type Omnidesk struct {
	Domain     string `yaml:"domain" json:"domain"`
	StaffEmail string `yaml:"staff_email" json:"staff_email"`
	APIKey     string `yaml:"api_key" json:"api_key"`
	BaseURL    string `yaml:"base_url" json:"base_url"`

	// sign-in with jwt, see support.omnidesk.ru knowledge base item 54180
	JWTMarker         string `yaml:"jwt_marker" json:"jwt_marker"`
	JWTAccessBaseURL  string `yaml:"jwt_access_base_url" json:"jwt_access_base_url"`
	DefaultRedirectTo string `yaml:"default_redirect_to" json:"default_redirect_to"`
}

type Server struct {
	Listen         string   `yaml:"listen" json:"listen"`
	CORSOrigins    []string `yaml:"cors_origins" json:"cors_origins"`
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout"`
	UploadTimeout  Duration `yaml:"upload_timeout" json:"upload_timeout"`
	LogLevel       string   `yaml:"log_level" json:"log_level"`
	PostgresDsn    string   `yaml:"postgres_dsn" json:"postgres_dsn"`
	RedisAddr      string   `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword  string   `yaml:"redis_password" json:"redis_password"`
	RedisDB        int      `yaml:"redis_db" json:"redis_db"`
	EnableTrace    bool     `yaml:"enable_trace" json:"enable_trace"`
	TraceEndpoint  string   `yaml:"trace_endpoint" json:"trace_endpoint"`
}

// Duration reads "30s"-style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func Default() Config {
	return Config{
		Accounts: Accounts{
			APIURL: DefaultAccountsURL,
		},
		Server: Server{
			Listen:         DefaultListen,
			CORSOrigins:    []string{"*"},
			RequestTimeout: Duration(30 * time.Second),
			UploadTimeout:  Duration(60 * time.Second),
			LogLevel:       "info",
		},
	}
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to open settings")
	}
	defer file.Close()

	config := Default()
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "failed to decode settings")
	}

	err = config.Validate()
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid settings")
	}

	return config, nil
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Accounts),
		validation.Field(&c.Omnidesk),
		validation.Field(&c.Server),
	)
}

func (a Accounts) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.APIURL, validation.Required, is.URL),
		validation.Field(&a.APIJWTToken, validation.Required),
	)
}

func (o Omnidesk) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Domain, validation.Required, validation.Match(subdomainPattern)),
		validation.Field(&o.StaffEmail, validation.Required, is.EmailFormat),
		validation.Field(&o.APIKey, validation.Required),
		validation.Field(&o.BaseURL, is.URL),
		validation.Field(&o.JWTMarker, validation.When(o.JWTAccessBaseURL != "", validation.Required)),
		validation.Field(&o.JWTAccessBaseURL, validation.When(o.JWTMarker != "", validation.Required), is.URL),
		validation.Field(&o.DefaultRedirectTo, is.URL),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Listen, validation.Required),
		validation.Field(&s.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&s.RequestTimeout, validation.By(positiveDuration)),
		validation.Field(&s.UploadTimeout, validation.By(positiveDuration)),
	)
}

func positiveDuration(value any) error {
	d, _ := value.(Duration)
	if d <= 0 {
		return errors.New("must be a positive duration")
	}
	return nil
}

// APIBaseURL is the root of the Omnidesk REST API for the configured account.
func (o Omnidesk) APIBaseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return "https://" + o.Domain + ".omnidesk.ru/api"
}

func (o Omnidesk) SSOEnabled() bool {
	return o.JWTMarker != "" && o.JWTAccessBaseURL != ""
}

func (s Server) SlogLevel() slog.Level {
	switch s.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogValue keeps credentials out of the logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("accounts_url", c.Accounts.APIURL),
		slog.String("omnidesk_url", c.Omnidesk.APIBaseURL()),
		slog.String("staff_email", c.Omnidesk.StaffEmail),
		slog.Bool("sso", c.Omnidesk.SSOEnabled()),
		slog.String("root_path", c.AppRootPath),
		slog.String("listen", c.Server.Listen),
		slog.Bool("activity_log", c.Server.PostgresDsn != ""),
		slog.Bool("realtime", c.Server.RedisAddr != ""),
		slog.Bool("trace", c.Server.EnableTrace),
	)
}
