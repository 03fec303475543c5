package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vogiaan1904/courtside-queue/config"
	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

type passService struct {
	conf config.CourtPassConfig
	l    logger.Logger
	now  func() time.Time
}

func NewPassService(conf config.CourtPassConfig, l logger.Logger) PassService {
	return &passService{
		conf: conf,
		l:    l,
		now:  time.Now,
	}
}

// Issue signs a court pass for a turn-now notification.
func (s *passService) Issue(ctx context.Context, n models.Notification) (string, error) {
	if n.ParticipantID == "" || n.MatchID == "" {
		return "", ErrPassInvalidClaims
	}

	iat := n.Timestamp
	if iat.IsZero() {
		iat = s.now()
	}

	claims := jwt.MapClaims{
		"session_id":     n.SessionID,
		"participant_id": n.ParticipantID,
		"user_id":        n.UserID,
		"match_id":       n.MatchID,
		"exp":            iat.Add(s.conf.Expiry).Unix(),
		"iat":            iat.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.Secret))
	if err != nil {
		s.l.Errorf(ctx, "passService.Issue: %v", err)
		return "", fmt.Errorf("failed to sign court pass: %w", err)
	}

	return tokenStr, nil
}

// Parse checks the signature and expiry of a court pass and returns its claims.
func (s *passService) Parse(ctx context.Context, token string) (CourtPassClaims, error) {
	if token == "" {
		return CourtPassClaims{}, ErrPassEmpty
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrPassUnexpectedSignature
		}
		return []byte(s.conf.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		s.l.Warnf(ctx, "passService.Parse: %v", err)
		return CourtPassClaims{}, fmt.Errorf("%w: %v", ErrPassInvalid, err)
	}
	if !parsed.Valid {
		return CourtPassClaims{}, ErrPassInvalid
	}

	out := CourtPassClaims{}
	for key, dst := range map[string]*string{
		"session_id":     &out.SessionID,
		"participant_id": &out.ParticipantID,
		"match_id":       &out.MatchID,
	} {
		v, ok := claims[key].(string)
		if !ok || v == "" {
			return CourtPassClaims{}, ErrPassInvalidClaims
		}
		*dst = v
	}
	out.UserID, _ = claims["user_id"].(string)

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time.UTC()
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time.UTC()
	}

	return out, nil
}
