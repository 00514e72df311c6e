package config // package config loads application configuration from environment variables

import (
    "errors"  // errors.Join collects every invalid setting in one report
    "fmt"     // fmt formats validation messages
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits list-valued variables
)

// Accepted values for JWT_ALGORITHM.
var allowedJWTAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// MinBcryptCost is the lowest cost accepted from the environment.
const MinBcryptCost = 12

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Components receive the fields they need through
// their constructors; nothing reads the environment after startup.
type Config struct {
    Env            string   // application environment (e.g. "dev", "prod")
    Port           string   // HTTP port to listen on
    DBDSN          string   // full MySQL DSN; overrides the DB_* parts when set
    DBUser         string   // database username
    DBPass         string   // database password (optional)
    DBHost         string   // database host address
    DBPort         string   // database port number
    DBName         string   // database name
    DBMigrate      bool     // run schema migration at startup
    JWTSecret      string   // secret used to sign JWTs
    JWTAlgorithm   string   // HS256, HS384 or HS512
    JWTIssuer      string   // iss claim written into and required from every token
    AccessTTLMin   int      // access token time‑to‑live in minutes
    RefreshTTLDays int      // refresh token time‑to‑live in days
    BcryptCost     int      // bcrypt cost for password hashing
    CORSOrigins    []string // allowed cross-origin callers
    LogLevel       string   // debug, info, warn or error
    NotifySink     string   // log, smtp or queue
    AlertTo        []string // recipients of critical stock alerts
    SMTPHost       string   // outbound mail server (optional)
    SMTPPort       string   // outbound mail port
    SMTPUser       string   // outbound mail username
    SMTPPass       string   // outbound mail password
    MailFrom       string   // From header of outbound mail
    RabbitMQURL    string   // broker URL; empty disables the consumers
}

// Load reads configuration values from environment variables and returns a
// Config.  Invalid or missing required values cause the program to exit
// with a fatal log message.
func Load() Config {
    cfg, err := FromEnv()
    if err != nil {
        log.Fatalf("invalid configuration: %v", err)
    }
    return cfg
}

// FromEnv is the non-fatal form of Load used by tests.
func FromEnv() (Config, error) {
    var errs []error
    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", "8000"),
        DBDSN:          os.Getenv("DB_DSN"),
        DBUser:         os.Getenv("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         envStr("DB_HOST", "127.0.0.1"),
        DBPort:         envStr("DB_PORT", "3306"),
        DBName:         os.Getenv("DB_NAME"),
        DBMigrate:      envBool("DB_MIGRATE", true),
        JWTSecret:      os.Getenv("JWT_SECRET"),
        JWTAlgorithm:   strings.ToUpper(envStr("JWT_ALGORITHM", "HS256")),
        JWTIssuer:      envStr("JWT_ISSUER", "sponge-stock-api"),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        NotifySink:     strings.ToLower(envStr("NOTIFY_SINK", "log")),
        AlertTo:        splitList(envStr("ALERT_RECIPIENTS", "admin@factory.com")),
        CORSOrigins:    splitList(envStr("CORS_ORIGINS", "http://localhost:3000")),
        SMTPHost:       os.Getenv("SMTP_SERVER"),
        SMTPPort:       envStr("SMTP_PORT", "587"),
        SMTPUser:       os.Getenv("SMTP_USER"),
        SMTPPass:       os.Getenv("SMTP_PASSWORD"),
        MailFrom:       os.Getenv("MAIL_FROM"),
        RabbitMQURL:    envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
    }
    cfg.AccessTTLMin = intOrErr(&errs, "ACCESS_TOKEN_TTL_MIN", 30)
    cfg.RefreshTTLDays = intOrErr(&errs, "REFRESH_TOKEN_TTL_DAYS", 7)
    cfg.BcryptCost = intOrErr(&errs, "BCRYPT_COST", MinBcryptCost)
    if cfg.MailFrom == "" {
        cfg.MailFrom = cfg.SMTPUser
    }

    if cfg.JWTSecret == "" {
        errs = append(errs, errors.New("missing required env var: JWT_SECRET"))
    } else if !cfg.isLocal() && len(cfg.JWTSecret) < 32 {
        errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
    }
    if !allowedJWTAlgorithms[cfg.JWTAlgorithm] {
        errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.JWTAlgorithm))
    }
    if cfg.DBDSN == "" && (cfg.DBUser == "" || cfg.DBName == "") {
        errs = append(errs, errors.New("either DB_DSN or DB_USER and DB_NAME must be set"))
    }
    if cfg.AccessTTLMin <= 0 {
        errs = append(errs, errors.New("ACCESS_TOKEN_TTL_MIN must be positive"))
    }
    if cfg.RefreshTTLDays <= 0 {
        errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
    }
    if cfg.BcryptCost < MinBcryptCost {
        errs = append(errs, fmt.Errorf("BCRYPT_COST must be at least %d", MinBcryptCost))
    }
    switch cfg.NotifySink {
    case "log", "smtp", "queue":
    default:
        errs = append(errs, fmt.Errorf("unsupported NOTIFY_SINK %q", cfg.NotifySink))
    }
    if cfg.NotifySink == "queue" && cfg.RabbitMQURL == "" {
        errs = append(errs, errors.New("NOTIFY_SINK=queue requires RABBITMQ_URL"))
    }
    return cfg, errors.Join(errs...)
}

// isLocal reports whether the process runs in a developer or test environment.
func (c Config) isLocal() bool {
    return c.Env == "dev" || c.Env == "test"
}

// intOrErr is like envInt but records a parse failure instead of silently
// falling back to the default.
func intOrErr(errs *[]error, key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        *errs = append(*errs, fmt.Errorf("invalid int for %s: %q", key, s))
        return def
    }
    return n
}

func splitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}
