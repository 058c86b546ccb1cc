package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/carvfi/carvfi-backend/internal/config"
)

const (
	dateLayout = "2006-01-02"

	// MaxLevel caps the derived account level.
	MaxLevel = 50

	referralAlphabet = "0123456789"
	referralLength   = 6
)

// LevelForPoints derives the account level from a points balance:
// floor(sqrt(points/50)) + 1, clamped to [1, MaxLevel]. Level is a pure
// function of points and is never stored.
func LevelForPoints(points int) int {
	if points <= 0 {
		return 1
	}
	level := int(math.Sqrt(float64(points)/50.0)) + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// DateKey formats t as the UTC calendar date used for daily boundaries.
func DateKey(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// DailyPoolID derives the daily pool ID for the day containing t.
func DailyPoolID(t time.Time) string {
	return "daily_" + DateKey(t)
}

// WeeklyPoolID derives the weekly jackpot pool ID for the ISO week
// containing t.
func WeeklyPoolID(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("weekly_%d_%02d", year, week)
}

// SameUTCDay reports whether a and b fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// SameISOWeek reports whether a and b fall in the same ISO week.
func SameISOWeek(a, b time.Time) bool {
	ay, aw := a.UTC().ISOWeek()
	by, bw := b.UTC().ISOWeek()
	return ay == by && aw == bw
}

// PoolPeriodElapsed reports whether the period encoded in poolID has
// fully passed relative to now. Unknown ID shapes are treated as not
// elapsed so a malformed record can never be settled.
func PoolPeriodElapsed(poolID string, now time.Time) bool {
	switch {
	case strings.HasPrefix(poolID, "daily_"):
		// ISO dates compare correctly as strings.
		return strings.TrimPrefix(poolID, "daily_") < DateKey(now)
	case strings.HasPrefix(poolID, "weekly_"):
		parts := strings.Split(poolID, "_")
		if len(parts) != 3 {
			return false
		}
		year, err1 := strconv.Atoi(parts[1])
		week, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return false
		}
		curYear, curWeek := now.UTC().ISOWeek()
		return year < curYear || (year == curYear && week < curWeek)
	default:
		return false
	}
}

// GenerateReferralCode mints a 6-digit referral code. Uniqueness is
// enforced by the caller against the user store.
func GenerateReferralCode() (string, error) {
	return gonanoid.Generate(referralAlphabet, referralLength)
}

// GenerateJWT issues a signed session token for the given subject.
func GenerateJWT(subject, role string, cfg *config.Config) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Second * time.Duration(cfg.JWT.ExpiresIn)).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ValidateJWT parses and validates a session token, returning its claims.
func ValidateJWT(tokenString string, cfg *config.Config) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
