package assets

import (
	"strings"
	"time"

	"github.com/yungbote/assets-backend/internal/modules/assets/derive"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	GalleryLimit = 7
)

// Config is everything the service needs from process configuration. It is
// built once at startup; the service never reads the environment.
type Config struct {
	PublicBaseURL   string
	Derive          derive.Config
	VerifySignature bool
	Clock           func() time.Time
}

func DefaultConfig(publicBaseURL string) Config {
	return Config{
		PublicBaseURL: publicBaseURL,
		Derive:        derive.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	c.PublicBaseURL = strings.TrimRight(strings.TrimSpace(c.PublicBaseURL), "/")
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	if c.Derive.Quality == 0 {
		c.Derive.Quality = derive.DefaultConfig().Quality
	}
	return c
}
