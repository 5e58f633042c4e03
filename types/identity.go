package types

// Router identity sources. Each is a read-only snapshot fetched per poll
// and used only as matching input; none is persisted long-term.

// ActiveSession is one live PPPoE session on the edge router
type ActiveSession struct {
	// Name is the subscriber username
	Name string

	// CallerID is the MAC address reported by the session
	CallerID string

	// Address is the assigned IP
	Address string

	// Service is the PPP service name
	Service string

	// Uptime is the raw uptime string as reported
	Uptime string
}

// Secret is a stored PPP secret on the router
type Secret struct {
	// InternalID is the router's own row id (".id" in the API)
	InternalID string

	Name     string
	CallerID string
	Comment  string
	Profile  string
	Service  string
	Disabled bool
}

// ArpEntry is one row of the router ARP table
type ArpEntry struct {
	Address   string
	MAC       string
	Interface string
	Comment   string
}

// DhcpLease is one DHCP server lease
type DhcpLease struct {
	Address  string
	MAC      string
	HostName string
	Server   string
	Status   string
	Comment  string
}

// DeviceMacEntry is one row learned from the router's per-device MAC
// table (bridge hosts / interface MACs), keyed by the ONU it was seen
// behind when the router can attribute it.
type DeviceMacEntry struct {
	MAC       string
	Interface string

	// PONPort and ONUIndex are set when the router-side table carries
	// the attribution, empty/zero otherwise.
	PONPort  string
	ONUIndex int
}

// IdentitySnapshot bundles every router-side source fetched for one
// enrichment pass.
type IdentitySnapshot struct {
	RouterName string
	Sessions   []ActiveSession
	Secrets    []Secret
	Arp        []ArpEntry
	Leases     []DhcpLease
	DeviceMacs []DeviceMacEntry
}
