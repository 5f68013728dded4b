package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration values
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for
// attempt windows and session lifetimes.  All values are read once at
// startup and never mutated afterwards.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    DBUser        string        // database username
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
    SessionSecret string        // secret used to sign admin session tokens
    IPSalt        string        // salt mixed into client address hashes
    AdminUser     string        // administrator login name
    AdminPass     string        // administrator password in plain text (dev setups)
    AdminPassHash string        // administrator password as a bcrypt hash (preferred)
    SessionTTL    time.Duration // lifetime of an admin session cookie
    AttemptWindow time.Duration // trailing window for redemption attempt counting
    AttemptLimit  int           // maximum attempts per client within the window
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Operational knobs
// (attempt window, session lifetime) default to the product rules and
// rarely need overriding.
func Load() Config {
    return Config{
        Env:           envStr("APP_ENV", "dev"),   // environment (dev/prod)
        Port:          envStr("APP_PORT", "8080"), // port to bind the HTTP server
        DBUser:        must("DB_USER"),            // database user
        DBPass:        os.Getenv("DB_PASS"),       // database password (empty allowed)
        DBHost:        must("DB_HOST"),            // database host
        DBPort:        must("DB_PORT"),            // database port
        DBName:        must("DB_NAME"),            // database name
        SessionSecret: must("SESSION_SECRET"),     // secret for signing session tokens
        IPSalt:        must("IP_SALT"),            // salt for hashing client addresses
        AdminUser:     envStr("ADMIN_USERNAME", "admin"), // admin login name
        AdminPass:     os.Getenv("ADMIN_PASSWORD"),       // plain admin password (optional)
        AdminPassHash: os.Getenv("ADMIN_PASSWORD_HASH"),  // bcrypt hash (takes precedence)
        SessionTTL:    envDur("SESSION_TTL", 30*24*time.Hour), // admin session lifetime
        AttemptWindow: envDur("ATTEMPT_WINDOW", time.Hour),    // attempt counting window
        AttemptLimit:  envInt("ATTEMPT_LIMIT", 5),             // attempts allowed per window
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// Helper functions shared with ratelimit.go.
func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
