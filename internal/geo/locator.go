package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/domain"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
)

const DefaultDeviceTimeout = 5 * time.Second

var (
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrNoDeviceLocation    = errors.New("device location not provided")
)

// Locator resolves the shopper's current position.
type Locator interface {
	Locate(ctx context.Context) (domain.Coordinates, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (domain.Coordinates, error)

func (f LocatorFunc) Locate(ctx context.Context) (domain.Coordinates, error) {
	return f(ctx)
}

// StaticLocator answers the coordinates the shopper's device reported with
// the request. A nil position means the device gave none.
type StaticLocator struct {
	Position *domain.Coordinates
}

func (l StaticLocator) Locate(ctx context.Context) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, err
	}
	if l.Position == nil {
		return domain.Coordinates{}, ErrNoDeviceLocation
	}
	if err := domain.Validate(*l.Position); err != nil {
		return domain.Coordinates{}, err
	}
	return *l.Position, nil
}

// IPResolver is the server-side location lookup.
type IPResolver interface {
	LookupIP(ctx context.Context, ip string) (domain.Coordinates, error)
}

// IPLocator approximates the position from the client's IP address.
type IPLocator struct {
	Resolver IPResolver
	IP       string
}

func (l IPLocator) Locate(ctx context.Context) (domain.Coordinates, error) {
	coords, err := l.Resolver.LookupIP(ctx, l.IP)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ip lookup: %w", err)
	}
	return coords, nil
}

// Chain tries Device within Timeout, then Fallback. When both fail the
// result is ErrLocationUnavailable.
type Chain struct {
	Device   Locator
	Fallback Locator
	Timeout  time.Duration
	Log      *slog.Logger
}

func (c Chain) Locate(ctx context.Context) (domain.Coordinates, error) {
	log := logger.OrDefault(c.Log)

	var deviceErr error
	if c.Device != nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultDeviceTimeout
		}
		deviceCtx, cancel := context.WithTimeout(ctx, timeout)
		coords, err := c.Device.Locate(deviceCtx)
		cancel()
		if err == nil {
			return coords, nil
		}
		deviceErr = err
		log.DebugContext(ctx, "device location failed, falling back", "error", err)
	}

	if c.Fallback == nil {
		if deviceErr == nil {
			return domain.Coordinates{}, ErrLocationUnavailable
		}
		return domain.Coordinates{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, deviceErr)
	}
	coords, err := c.Fallback.Locate(ctx)
	if err != nil {
		log.WarnContext(ctx, "location fallback failed", "device_error", deviceErr, "error", err)
		return domain.Coordinates{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, errors.Join(deviceErr, err))
	}
	return coords, nil
}
