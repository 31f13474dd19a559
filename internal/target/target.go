package target

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"golang.org/x/xerrors"
)

var (
	ErrInvalidURL        = errors.New("invalid url")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
	ErrUnresolvableHost  = errors.New("unresolvable host")
	ErrForbiddenAddress  = errors.New("forbidden address")
)

// Parse accepts absolute http and https URLs with a host.
func Parse(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", err, ErrInvalidURL)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return nil, xerrors.Errorf("%q is not an absolute url: %w", raw, ErrInvalidURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, xerrors.Errorf("scheme %s: %w", u.Scheme, ErrUnsupportedScheme)
	}

	return u, nil
}

type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Guard rejects URLs whose host is, or resolves to, an address that is only
// reachable from inside the host network. It checks the requested host once;
// redirects followed by the browser and a different answer to the browser's
// own DNS lookup are not covered.
type Guard struct {
	Resolver             Resolver
	AllowPrivateNetworks bool
}

func NewGuard(allowPrivateNetworks bool) *Guard {
	return &Guard{
		Resolver:             net.DefaultResolver,
		AllowPrivateNetworks: allowPrivateNetworks,
	}
}

func (g *Guard) Check(ctx context.Context, raw string) (*url.URL, error) {
	u, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if g.AllowPrivateNetworks {
		return u, nil
	}

	host := u.Hostname()
	if ip := net.ParseIP(host); ip != nil {
		if forbidden(ip) {
			return nil, xerrors.Errorf("%s: %w", ip, ErrForbiddenAddress)
		}
		return u, nil
	}

	addrs, err := g.resolver().LookupIPAddr(ctx, host)
	if err != nil {
		return nil, xerrors.Errorf("%s: %s: %w", host, err, ErrUnresolvableHost)
	}
	if len(addrs) == 0 {
		return nil, xerrors.Errorf("%s: %w", host, ErrUnresolvableHost)
	}
	for _, addr := range addrs {
		if forbidden(addr.IP) {
			return nil, xerrors.Errorf("%s resolves to %s: %w", host, addr.IP, ErrForbiddenAddress)
		}
	}

	return u, nil
}

func (g *Guard) resolver() Resolver {
	if g.Resolver != nil {
		return g.Resolver
	}
	return net.DefaultResolver
}

// 100.64.0.0/10, carrier-grade NAT
var sharedAddressSpace = &net.IPNet{IP: net.IPv4(100, 64, 0, 0).To4(), Mask: net.CIDRMask(10, 32)}

func forbidden(ip net.IP) bool {
	return ip.IsLoopback() ||
		sharedAddressSpace.Contains(ip) ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast()
}
