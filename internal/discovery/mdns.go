// ABOUTME: mDNS advertisement and browsing for net-mic endpoints
// ABOUTME: Lets microphones on the LAN find a running mixer without configuration
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog"
)

// ServiceType is the DNS-SD type of the net-mic endpoint
const ServiceType = "_sendspin-mic._tcp"

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	Path        string
}

// Advertiser publishes the endpoint while the mixer serves
type Advertiser struct {
	config Config
	log    zerolog.Logger
}

// Endpoint describes a discovered mixer
type Endpoint struct {
	Name string
	Host string
	Port int
	Path string
}

// URL returns the websocket address of the endpoint
func (e Endpoint) URL() string {
	return "ws://" + net.JoinHostPort(e.Host, strconv.Itoa(e.Port)) + e.Path
}

// NewAdvertiser creates an advertiser for the given endpoint
func NewAdvertiser(config Config, log zerolog.Logger) *Advertiser {
	if config.Path == "" {
		config.Path = "/"
	}
	return &Advertiser{config: config, log: log}
}

// Advertise publishes the service until ctx is cancelled
func (a *Advertiser) Advertise(ctx context.Context) error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := a.service(ips)
	if err != nil {
		return err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	a.log.Info().
		Str("name", a.config.ServiceName).
		Int("port", a.config.Port).
		Str("type", ServiceType).
		Msg("advertising mDNS service")

	<-ctx.Done()
	return server.Shutdown()
}

func (a *Advertiser) service(ips []net.IP) (*mdns.MDNSService, error) {
	service, err := mdns.NewMDNSService(
		a.config.ServiceName,
		ServiceType,
		"",
		"",
		a.config.Port,
		ips,
		[]string{"path=" + a.config.Path},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return service, nil
}

// Browse queries the network once for advertised endpoints
func Browse(ctx context.Context, timeout time.Duration) ([]Endpoint, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan []Endpoint, 1)

	go func() {
		var found []Endpoint
		for entry := range entries {
			if ep, ok := endpointFrom(entry); ok {
				found = append(found, ep)
			}
		}
		done <- found
	}()

	params := &mdns.QueryParam{
		Service:     ServiceType,
		Domain:      "local",
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	}

	err := mdns.QueryContext(ctx, params)
	close(entries)
	found := <-done

	if err != nil {
		return found, fmt.Errorf("mdns query failed: %w", err)
	}
	return found, nil
}

func endpointFrom(entry *mdns.ServiceEntry) (Endpoint, bool) {
	if entry == nil || entry.AddrV4 == nil {
		return Endpoint{}, false
	}

	ep := Endpoint{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Path: "/",
	}
	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok {
			ep.Path = path
		}
	}
	return ep, true
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
