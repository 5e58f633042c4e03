package mikrotik

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/cache"
	"github.com/nanoncore/nano-fleetmon/types"
)

// Protocol names for the method cache
const (
	ProtoBinary = "binary"
	ProtoREST   = "rest"
)

const (
	// methodTTL is how long a detected access method is trusted
	methodTTL = 5 * time.Minute

	// probeTimeout bounds each individual detection attempt
	probeTimeout = 4 * time.Second

	defaultTimeout = 15 * time.Second
)

// Method is the cached result of access detection for one router
type Method struct {
	Protocol string
	Port     int
	TLS      bool
	Version  string
}

func (m Method) String() string {
	return fmt.Sprintf("%s:%d (v%s)", m.Protocol, m.Port, m.Version)
}

// Client talks to one router, transparently dispatching each call to the
// binary or REST implementation based on the cached method.
type Client struct {
	cfg     types.RouterConfig
	methods *cache.TTL[Method]
	timeout time.Duration
}

// NewClient creates a client. The method cache is injected so it can be
// shared across poll cycles; it is keyed by router address, so concurrent
// polls of different devices never share an entry.
func NewClient(cfg types.RouterConfig, methods *cache.TTL[Method]) *Client {
	if methods == nil {
		methods = cache.New[Method]()
	}
	return &Client{cfg: cfg, methods: methods, timeout: defaultTimeout}
}

// candidate is one probe of the detection order
type candidate struct {
	protocol string
	port     int
	tls      bool
}

// candidates builds the ordered probe list: the custom configured port
// under both protocols first, then the binary defaults 8728/8729, then
// the REST defaults 443/80.
func (c *Client) candidates() []candidate {
	var list []candidate
	if p := c.cfg.Port; p != 0 {
		list = append(list,
			candidate{ProtoREST, p, false},
			candidate{ProtoREST, p, true},
			candidate{ProtoBinary, p, c.cfg.UseTLS},
		)
	}
	list = append(list,
		candidate{ProtoBinary, 8728, false},
		candidate{ProtoBinary, 8729, true},
		candidate{ProtoREST, 443, true},
		candidate{ProtoREST, 80, false},
	)
	return list
}

// detect finds a working access method, caching the first success for 5
// minutes. When every probe fails it assumes the legacy binary protocol
// (v6) on the configured or default port.
func (c *Client) detect(ctx context.Context) Method {
	if m, ok := c.methods.Get(c.cfg.Address); ok {
		return m
	}

	for _, cand := range c.candidates() {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		version, err := c.probe(probeCtx, cand)
		cancel()
		if err != nil {
			continue
		}
		m := Method{Protocol: cand.protocol, Port: cand.port, TLS: cand.tls, Version: version}
		c.methods.Put(c.cfg.Address, m, methodTTL)
		return m
	}

	port := c.cfg.Port
	if port == 0 {
		port = 8728
	}
	m := Method{Protocol: ProtoBinary, Port: port, TLS: c.cfg.UseTLS, Version: "6"}
	c.methods.Put(c.cfg.Address, m, methodTTL)
	return m
}

func (c *Client) probe(ctx context.Context, cand candidate) (string, error) {
	switch cand.protocol {
	case ProtoBinary:
		s, err := dialBinary(ctx, c.cfg.Address, cand.port, cand.tls, c.cfg.Username, c.cfg.Password, probeTimeout)
		if err != nil {
			return "", err
		}
		defer s.Close()
		reply, err := s.Run("/system/resource/print")
		if err != nil {
			return "", err
		}
		return versionFrom(reply), nil

	case ProtoREST:
		rc := newRESTClient(c.cfg.Address, cand.port, cand.tls, c.cfg.Username, c.cfg.Password, probeTimeout)
		reply, err := rc.Run(ctx, "/system/resource/print")
		if err != nil {
			return "", err
		}
		return versionFrom(reply), nil

	default:
		return "", fmt.Errorf("unknown protocol %q", cand.protocol)
	}
}

func versionFrom(reply *Reply) string {
	for _, row := range reply.Rows {
		if v := row["version"]; v != "" {
			// "7.14.2 (stable)" -> "7.14.2"
			return strings.Fields(v)[0]
		}
	}
	return "unknown"
}

// run dispatches one read command through the detected method
func (c *Client) run(ctx context.Context, command string) (*Reply, error) {
	m := c.detect(ctx)

	switch m.Protocol {
	case ProtoREST:
		rc := newRESTClient(c.cfg.Address, m.Port, m.TLS, c.cfg.Username, c.cfg.Password, c.timeout)
		return rc.Run(ctx, command)

	default:
		s, err := dialBinary(ctx, c.cfg.Address, m.Port, m.TLS, c.cfg.Username, c.cfg.Password, c.timeout)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Run(command)
	}
}

// === Identity sources ===

// ActiveSessions fetches the live PPPoE session table
func (c *Client) ActiveSessions(ctx context.Context) ([]types.ActiveSession, error) {
	reply, err := c.run(ctx, "/ppp/active/print")
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	sessions := make([]types.ActiveSession, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		sessions = append(sessions, types.ActiveSession{
			Name:     row["name"],
			CallerID: row["caller-id"],
			Address:  row["address"],
			Service:  row["service"],
			Uptime:   row["uptime"],
		})
	}
	return sessions, nil
}

// ArpTable fetches the router ARP table
func (c *Client) ArpTable(ctx context.Context) ([]types.ArpEntry, error) {
	reply, err := c.run(ctx, "/ip/arp/print")
	if err != nil {
		return nil, fmt.Errorf("arp table: %w", err)
	}
	entries := make([]types.ArpEntry, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		entries = append(entries, types.ArpEntry{
			Address:   row["address"],
			MAC:       row["mac-address"],
			Interface: row["interface"],
			Comment:   row["comment"],
		})
	}
	return entries, nil
}

// DhcpLeases fetches the DHCP server lease table
func (c *Client) DhcpLeases(ctx context.Context) ([]types.DhcpLease, error) {
	reply, err := c.run(ctx, "/ip/dhcp-server/lease/print")
	if err != nil {
		return nil, fmt.Errorf("dhcp leases: %w", err)
	}
	leases := make([]types.DhcpLease, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		leases = append(leases, types.DhcpLease{
			Address:  row["address"],
			MAC:      row["mac-address"],
			HostName: row["host-name"],
			Server:   row["server"],
			Status:   row["status"],
			Comment:  row["comment"],
		})
	}
	return leases, nil
}

// Secrets fetches the stored PPP secrets. Internal row ids are included
// when withIDs is set (needed for updates).
func (c *Client) Secrets(ctx context.Context, withIDs bool) ([]types.Secret, error) {
	reply, err := c.run(ctx, "/ppp/secret/print")
	if err != nil {
		return nil, fmt.Errorf("ppp secrets: %w", err)
	}
	secrets := make([]types.Secret, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		s := types.Secret{
			Name:     row["name"],
			CallerID: row["caller-id"],
			Comment:  row["comment"],
			Profile:  row["profile"],
			Service:  row["service"],
			Disabled: row["disabled"] == "true",
		}
		if withIDs {
			s.InternalID = row[".id"]
		}
		secrets = append(secrets, s)
	}
	return secrets, nil
}

// Profiles fetches the PPP profile names
func (c *Client) Profiles(ctx context.Context) ([]string, error) {
	reply, err := c.run(ctx, "/ppp/profile/print")
	if err != nil {
		return nil, fmt.Errorf("ppp profiles: %w", err)
	}
	names := make([]string, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		if n := row["name"]; n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}

// Identity fetches the router's configured identity name
func (c *Client) Identity(ctx context.Context) (string, error) {
	reply, err := c.run(ctx, "/system/identity/print")
	if err != nil {
		return "", fmt.Errorf("identity: %w", err)
	}
	for _, row := range reply.Rows {
		if n := row["name"]; n != "" {
			return n, nil
		}
	}
	return "", nil
}

// DeviceMacs fetches the bridge host table, the router-side record of
// which MACs were learned behind which interface.
func (c *Client) DeviceMacs(ctx context.Context) ([]types.DeviceMacEntry, error) {
	reply, err := c.run(ctx, "/interface/bridge/host/print")
	if err != nil {
		return nil, fmt.Errorf("bridge hosts: %w", err)
	}
	entries := make([]types.DeviceMacEntry, 0, len(reply.Rows))
	for _, row := range reply.Rows {
		entries = append(entries, deviceMacFromRow(row))
	}
	return entries, nil
}

// deviceMacFromRow maps one bridge host row. The learned port is
// "on-interface"; older releases report it as "interface".
func deviceMacFromRow(row map[string]string) types.DeviceMacEntry {
	iface := row["on-interface"]
	if iface == "" {
		iface = row["interface"]
	}
	return types.DeviceMacEntry{
		MAC:       row["mac-address"],
		Interface: iface,
	}
}

// UpdateSecret rewrites a single secret's comment and/or caller-id.
// Dispatches to PATCH under REST and to a set command under binary.
func (c *Client) UpdateSecret(ctx context.Context, internalID string, fields map[string]string) error {
	if internalID == "" {
		return fmt.Errorf("update secret: internal id is required")
	}
	m := c.detect(ctx)

	switch m.Protocol {
	case ProtoREST:
		rc := newRESTClient(c.cfg.Address, m.Port, m.TLS, c.cfg.Username, c.cfg.Password, c.timeout)
		return rc.Patch(ctx, "/ppp/secret/print", internalID, fields)

	default:
		s, err := dialBinary(ctx, c.cfg.Address, m.Port, m.TLS, c.cfg.Username, c.cfg.Password, c.timeout)
		if err != nil {
			return err
		}
		defer s.Close()

		attrs := []string{"=.id=" + internalID}
		for k, v := range fields {
			attrs = append(attrs, "="+k+"="+v)
		}
		_, err = s.Run("/ppp/secret/set", attrs...)
		return err
	}
}

// Snapshot fetches every identity source for one enrichment pass.
// Individual source failures degrade to empty slices; only a completely
// unreachable router returns an error.
func (c *Client) Snapshot(ctx context.Context) (*types.IdentitySnapshot, error) {
	sessions, err := c.ActiveSessions(ctx)
	if err != nil {
		return nil, err
	}

	snap := &types.IdentitySnapshot{Sessions: sessions}
	snap.RouterName = c.cfg.Name
	if name, err := c.Identity(ctx); err == nil && name != "" {
		snap.RouterName = name
	}
	if secrets, err := c.Secrets(ctx, true); err == nil {
		snap.Secrets = secrets
	}
	if arp, err := c.ArpTable(ctx); err == nil {
		snap.Arp = arp
	}
	if leases, err := c.DhcpLeases(ctx); err == nil {
		snap.Leases = leases
	}
	if macs, err := c.DeviceMacs(ctx); err == nil {
		snap.DeviceMacs = macs
	}
	return snap, nil
}
