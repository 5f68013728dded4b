package handler

import (
    "context"              // context with timeout for DB-bound calls
    "crypto/subtle"        // constant-time comparison for the plain-password fallback
    "encoding/json"        // lenient decoding of the ttlSeconds field
    "errors"               // sentinel error matching
    "net/http"             // HTTP status codes and cookie type
    "strings"              // op normalization
    "time"                 // range parsing and timeouts

    "github.com/labstack/echo/v4"    // Echo framework for HTTP routing
    "golang.org/x/crypto/bcrypt"     // bcrypt verification of the admin password

    "github.com/iliyamo/spin-wheel-redemption/internal/config"     // app configuration
    "github.com/iliyamo/spin-wheel-redemption/internal/repository" // wins summary types
    "github.com/iliyamo/spin-wheel-redemption/internal/service"    // redemption/issuance services
    "github.com/iliyamo/spin-wheel-redemption/internal/utils"      // session token helpers
)

// sessionCookieName is the cookie carrying the signed admin session token.
const sessionCookieName = "admin_session"

// defaultWinsRange is the trailing window reported when the operator
// supplies no explicit range.
const defaultWinsRange = 30 * 24 * time.Hour

// CodeIssuer creates redemption codes.  Implemented by service.Issuer.
type CodeIssuer interface {
    Issue(ctx context.Context, ttlSeconds int) (service.IssuedCode, error)
}

// Spinner runs the redemption flow.  Implemented by service.Redeemer.
type Spinner interface {
    Redeem(ctx context.Context, code, clientAddr string) (int, error)
}

// WinsReporter aggregates awarded prizes.  Implemented by repository.SpinRepo.
type WinsReporter interface {
    Summarize(ctx context.Context, from, to time.Time) (repository.WinsSummary, error)
}

// Backend bundles the dependencies for the single dispatch endpoint.  All
// operations are multiplexed through /api/backend and selected by the `op`
// query parameter.
type Backend struct {
    Cfg      config.Config
    Issuer   CodeIssuer
    Redeemer Spinner
    Reports  WinsReporter
}

func NewBackend(cfg config.Config, issuer CodeIssuer, redeemer Spinner, reports WinsReporter) *Backend {
    return &Backend{Cfg: cfg, Issuer: issuer, Redeemer: redeemer, Reports: reports}
}

// ----- DTOs -----

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}
type createCodeReq struct {
    TTLSeconds ttlSeconds `json:"ttlSeconds"`
}

// ttlSeconds decodes a JSON number into an optional int.  Anything that is
// not a number (a string, null, an object) leaves the value unset so the
// issuer falls back to its default instead of rejecting the request.
type ttlSeconds struct {
    v *int
}

func (t *ttlSeconds) UnmarshalJSON(b []byte) error {
    var n int
    if err := json.Unmarshal(b, &n); err == nil {
        t.v = &n
    }
    return nil
}
type spinReq struct {
    Code string `json:"code"`
}

// Dispatch routes a request to the operation named by the `op` query
// parameter.  Each operation is bound to one HTTP method; a known op called
// with the wrong method gets 405, an unknown op gets 404.
func (h *Backend) Dispatch(c echo.Context) error {
    op := strings.ToLower(c.QueryParam("op"))
    method := c.Request().Method
    switch op {
    case "login":
        if method != http.MethodPost {
            return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
        }
        return h.login(c)
    case "logout":
        if method != http.MethodPost {
            return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
        }
        return h.logout(c)
    case "create_code":
        if method != http.MethodPost {
            return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
        }
        return h.createCode(c)
    case "spin":
        if method != http.MethodPost {
            return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
        }
        return h.spin(c)
    case "wins":
        if method != http.MethodGet {
            return c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
        }
        return h.wins(c)
    default:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Unknown op"})
    }
}

// login checks the operator credentials and, on success, sets the signed
// session cookie.  No server-side session state is created; the cookie is
// the whole session.
func (h *Backend) login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Username != h.Cfg.AdminUser || !h.verifyAdminPassword(req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
    }

    tok, err := utils.NewSessionToken(h.Cfg.SessionSecret, h.Cfg.SessionTTL)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
    }
    c.SetCookie(h.sessionCookie(tok.Token, int(h.Cfg.SessionTTL/time.Second)))
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// logout clears the session cookie.  Tokens are self-contained, so there is
// nothing to revoke server-side; an already-issued token stays valid until
// its embedded expiry.
func (h *Backend) logout(c echo.Context) error {
    c.SetCookie(h.sessionCookie("", -1))
    return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// createCode issues a fresh single-use code for the operator to hand out.
func (h *Backend) createCode(c echo.Context) error {
    if !h.isAdmin(c) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
    }
    var req createCodeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    issued, err := h.Issuer.Issue(ctx, service.ClampTTL(req.TTLSeconds.v))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create code failed"})
    }
    return c.JSON(http.StatusOK, issued)
}

// spin redeems a code for a prize.  No authentication: this is the end-user
// operation.  Error mapping follows the service sentinels; anything else is
// a generic 500 the caller may resubmit after.
func (h *Backend) spin(c echo.Context) error {
    var req spinReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    prizeCents, err := h.Redeemer.Redeem(ctx, req.Code, c.RealIP())
    if err != nil {
        switch {
        case errors.Is(err, service.ErrInvalidFormat):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        case errors.Is(err, service.ErrTooManyAttempts):
            return c.JSON(http.StatusTooManyRequests, echo.Map{"error": err.Error()})
        case errors.Is(err, service.ErrCodeUnredeemable):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        default:
            c.Logger().Errorf("spin failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"prizeCents": prizeCents})
}

// wins reports aggregated awards for the operator.  `from` and `to` are
// optional RFC 3339 timestamps forming a half-open range; when either is
// missing the trailing 30 days are reported.
func (h *Backend) wins(c echo.Context) error {
    if !h.isAdmin(c) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized"})
    }

    from, to, err := parseWinsRange(c.QueryParam("from"), c.QueryParam("to"), time.Now().UTC())
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time range"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    sum, err := h.Reports.Summarize(ctx, from, to)
    if err != nil {
        c.Logger().Errorf("wins summary failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Server error"})
    }
    return c.JSON(http.StatusOK, sum)
}

// parseWinsRange resolves the optional from/to parameters against now.
// Both must be present for an explicit range; otherwise the default
// trailing window applies.
func parseWinsRange(fromStr, toStr string, now time.Time) (time.Time, time.Time, error) {
    if fromStr == "" || toStr == "" {
        return now.Add(-defaultWinsRange), now, nil
    }
    from, err := time.Parse(time.RFC3339, fromStr)
    if err != nil {
        return time.Time{}, time.Time{}, err
    }
    to, err := time.Parse(time.RFC3339, toStr)
    if err != nil {
        return time.Time{}, time.Time{}, err
    }
    return from, to, nil
}

// isAdmin reports whether the request carries a valid admin session cookie.
func (h *Backend) isAdmin(c echo.Context) bool {
    ck, err := c.Cookie(sessionCookieName)
    if err != nil || ck.Value == "" {
        return false
    }
    return utils.VerifySessionToken(h.Cfg.SessionSecret, ck.Value) == nil
}

// verifyAdminPassword checks the supplied password against the configured
// bcrypt hash when present, falling back to a constant-time comparison with
// the plain-text password for dev setups.
func (h *Backend) verifyAdminPassword(password string) bool {
    if h.Cfg.AdminPassHash != "" {
        return bcrypt.CompareHashAndPassword([]byte(h.Cfg.AdminPassHash), []byte(password)) == nil
    }
    if h.Cfg.AdminPass == "" {
        return false
    }
    return subtle.ConstantTimeCompare([]byte(h.Cfg.AdminPass), []byte(password)) == 1
}

// sessionCookie builds the admin session cookie.  HttpOnly and strict
// same-site always; Secure only outside dev so local HTTP testing works.
func (h *Backend) sessionCookie(value string, maxAge int) *http.Cookie {
    return &http.Cookie{
        Name:     sessionCookieName,
        Value:    value,
        Path:     "/",
        MaxAge:   maxAge,
        HttpOnly: true,
        SameSite: http.SameSiteStrictMode,
        Secure:   h.Cfg.Env == "prod",
    }
}
