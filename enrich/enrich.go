// Package enrich attributes subscriber identity to normalized ONU
// records using router-side session, secret, ARP, lease, and MAC-table
// snapshots. Matching is a fixed-priority cascade; the first level that
// yields an unclaimed username wins.
package enrich

import (
	"strconv"
	"strings"

	"github.com/nanoncore/nano-fleetmon/types"
	"github.com/nanoncore/nano-fleetmon/vendors/common"
)

// Match method labels persisted on the record so operators can see how
// an attribution was made.
const (
	MethodSessionMAC    = "session-mac"
	MethodDeviceMAC     = "device-mac-table"
	MethodSecretCaller  = "secret-callerid"
	MethodSecretComment = "secret-comment"
	MethodPortPattern   = "port-pattern"
	MethodNameOverlap   = "name-overlap"
	MethodLastSix       = "last6"
)

// minNameOverlap is the shortest substring considered a deliberate
// naming correlation rather than coincidence.
const minNameOverlap = 4

type matcher struct {
	snap *types.IdentitySnapshot

	sessionByCaller map[string]*types.ActiveSession
	secretByCaller  map[string]*types.Secret
	macsByONU       map[string][]string
	macsByIface     map[string][]string
	ifacesByMAC     map[string][]string
	leaseByMAC      map[string]*types.DhcpLease
	arpByMAC        map[string]*types.ArpEntry

	// used enforces one-subscriber-one-ONU within a single pass
	used map[string]bool
}

func newMatcher(snap *types.IdentitySnapshot) *matcher {
	m := &matcher{
		snap:            snap,
		sessionByCaller: make(map[string]*types.ActiveSession),
		secretByCaller:  make(map[string]*types.Secret),
		macsByONU:       make(map[string][]string),
		macsByIface:     make(map[string][]string),
		ifacesByMAC:     make(map[string][]string),
		leaseByMAC:      make(map[string]*types.DhcpLease),
		arpByMAC:        make(map[string]*types.ArpEntry),
		used:            make(map[string]bool),
	}
	for i := range snap.Sessions {
		s := &snap.Sessions[i]
		if mac := common.NormalizeMAC(s.CallerID); mac != "" {
			m.sessionByCaller[mac] = s
		}
	}
	for i := range snap.Secrets {
		s := &snap.Secrets[i]
		if mac := common.NormalizeMAC(s.CallerID); mac != "" {
			m.secretByCaller[mac] = s
		}
	}
	for i := range snap.DeviceMacs {
		e := &snap.DeviceMacs[i]
		mac := common.NormalizeMAC(e.MAC)
		if mac == "" {
			continue
		}
		if e.PONPort != "" {
			key := onuKey(e.PONPort, e.ONUIndex)
			m.macsByONU[key] = append(m.macsByONU[key], mac)
		}
		if e.Interface != "" {
			m.macsByIface[e.Interface] = append(m.macsByIface[e.Interface], mac)
			m.ifacesByMAC[mac] = append(m.ifacesByMAC[mac], e.Interface)
		}
	}
	for i := range snap.Leases {
		l := &snap.Leases[i]
		if mac := common.NormalizeMAC(l.MAC); mac != "" {
			m.leaseByMAC[mac] = l
		}
	}
	for i := range snap.Arp {
		a := &snap.Arp[i]
		if mac := common.NormalizeMAC(a.MAC); mac != "" {
			m.arpByMAC[mac] = a
		}
	}
	return m
}

func onuKey(port string, idx int) string {
	return port + ":" + strconv.Itoa(idx)
}

// Enrich resolves subscriber identity for each record in place. Records
// are visited in slice order, which the parser keeps stable, so repeated
// passes over the same input attribute identically.
func Enrich(records []*types.ONURecord, snap *types.IdentitySnapshot) {
	if snap == nil {
		return
	}
	m := newMatcher(snap)
	for _, r := range records {
		m.resolve(r)
	}
}

func (m *matcher) resolve(r *types.ONURecord) {
	macs := recordMACs(r)

	// 1. ONU MAC equals a live session caller-id.
	for _, mac := range macs {
		if s, ok := m.sessionByCaller[mac]; ok && m.claim(s.Name) {
			m.attribute(r, s.Name, mac, MethodSessionMAC)
			return
		}
	}

	// 2. MACs the router observed behind this ONU. Rows attributed to a
	// port/index are used directly; otherwise co-location on a bridge
	// interface stands in: a session caller-id sharing an interface with
	// the ONU's own MAC sits behind that ONU. The interface grouping is
	// symmetric, so it covers both lookup directions.
	for _, mac := range m.macsByONU[r.Key()] {
		if s, ok := m.sessionByCaller[mac]; ok && m.claim(s.Name) {
			m.attribute(r, s.Name, mac, MethodDeviceMAC)
			return
		}
	}
	for _, mac := range macs {
		for _, iface := range m.ifacesByMAC[mac] {
			for _, peer := range m.macsByIface[iface] {
				if peer == mac {
					continue
				}
				if s, ok := m.sessionByCaller[peer]; ok && m.claim(s.Name) {
					m.attribute(r, s.Name, peer, MethodDeviceMAC)
					return
				}
			}
		}
	}

	// 3. Stored secret caller-id.
	for _, mac := range macs {
		if s, ok := m.secretByCaller[mac]; ok && m.claim(s.Name) {
			m.attribute(r, s.Name, mac, MethodSecretCaller)
			return
		}
	}

	// 4. Serial or MAC digits inside a secret comment.
	if s := m.secretByCommentSubstring(r); s != nil && m.claim(s.Name) {
		m.attribute(r, s.Name, common.NormalizeMAC(s.CallerID), MethodSecretComment)
		return
	}

	// 5. Composite port:index pattern in a secret username or comment.
	if s := m.secretByPortPattern(r); s != nil && m.claim(s.Name) {
		m.attribute(r, s.Name, common.NormalizeMAC(s.CallerID), MethodPortPattern)
		return
	}

	// 6. Display-name / username overlap, placeholders excluded.
	if !types.IsPlaceholderName(r.Name) {
		if s := m.secretByNameOverlap(r.Name); s != nil && m.claim(s.Name) {
			m.attribute(r, s.Name, common.NormalizeMAC(s.CallerID), MethodNameOverlap)
			return
		}
	}

	// 7. Last six hex digits of the MAC or serial.
	if name, mac := m.matchLastSix(r); name != "" && m.claim(name) {
		m.attribute(r, name, mac, MethodLastSix)
		return
	}
}

// claim reserves a username for the rest of the pass. An empty name
// never claims.
func (m *matcher) claim(name string) bool {
	if name == "" || m.used[name] {
		return false
	}
	m.used[name] = true
	return true
}

func (m *matcher) attribute(r *types.ONURecord, username, routerMAC, method string) {
	r.PPPoEUsername = username
	r.MatchMethod = method
	r.RouterMAC = routerMAC
	r.RouterName = m.snap.RouterName
	if name := m.displayName(username, routerMAC); name != "" && types.IsPlaceholderName(r.Name) {
		r.Name = name
	}
}

// recordMACs lists the normalized MAC forms a record can be matched by.
// For brands where the serial is the MAC, SerialAsMAC recovers the
// colon form from the bare serial.
func recordMACs(r *types.ONURecord) []string {
	var macs []string
	if mac := common.NormalizeMAC(r.MACAddress); mac != "" {
		macs = append(macs, mac)
	}
	if mac := common.SerialAsMAC(r.SerialNumber); mac != "" && (len(macs) == 0 || macs[0] != mac) {
		macs = append(macs, mac)
	}
	return macs
}

func (m *matcher) secretByCommentSubstring(r *types.ONURecord) *types.Secret {
	var needles []string
	if len(r.SerialNumber) >= 6 {
		needles = append(needles, strings.ToLower(r.SerialNumber))
	}
	if mac := common.NormalizeMAC(r.MACAddress); mac != "" {
		needles = append(needles, strings.ToLower(mac), strings.ToLower(strings.ReplaceAll(mac, ":", "")))
	}
	if len(needles) == 0 {
		return nil
	}
	for i := range m.snap.Secrets {
		s := &m.snap.Secrets[i]
		comment := strings.ToLower(s.Comment)
		if comment == "" {
			continue
		}
		for _, n := range needles {
			if strings.Contains(comment, n) {
				return s
			}
		}
	}
	return nil
}

// portPatterns lists the textual variants operators use when hand-tagging
// a secret with an ONU location.
func portPatterns(r *types.ONURecord) []string {
	port := strings.ToLower(r.PONPort)
	idx := strconv.Itoa(r.ONUIndex)
	return []string{
		port + ":" + idx,
		port + "-" + idx,
		strings.ReplaceAll(port, "/", "-") + "-" + idx,
		"onu" + idx + "@" + port,
	}
}

func (m *matcher) secretByPortPattern(r *types.ONURecord) *types.Secret {
	patterns := portPatterns(r)
	for i := range m.snap.Secrets {
		s := &m.snap.Secrets[i]
		hay := strings.ToLower(s.Name + " " + s.Comment)
		for _, p := range patterns {
			if strings.Contains(hay, p) {
				return s
			}
		}
	}
	return nil
}

func (m *matcher) secretByNameOverlap(name string) *types.Secret {
	lower := strings.ToLower(name)
	if len(lower) < minNameOverlap {
		return nil
	}
	for i := range m.snap.Secrets {
		s := &m.snap.Secrets[i]
		user := strings.ToLower(s.Name)
		if len(user) < minNameOverlap {
			continue
		}
		if strings.Contains(user, lower) || strings.Contains(lower, user) {
			return s
		}
	}
	return nil
}

func (m *matcher) matchLastSix(r *types.ONURecord) (string, string) {
	var tails []string
	if t := common.LastHex(r.MACAddress, 6); t != "" {
		tails = append(tails, strings.ToLower(t))
	}
	if t := common.LastHex(r.SerialNumber, 6); t != "" {
		tails = append(tails, strings.ToLower(t))
	}
	if len(tails) == 0 {
		return "", ""
	}
	match := func(hay string) bool {
		hay = strings.ToLower(hay)
		for _, t := range tails {
			if t != "" && strings.Contains(hay, t) {
				return true
			}
		}
		return false
	}
	for i := range m.snap.Sessions {
		s := &m.snap.Sessions[i]
		if match(s.CallerID) {
			return s.Name, common.NormalizeMAC(s.CallerID)
		}
	}
	for i := range m.snap.Secrets {
		s := &m.snap.Secrets[i]
		if match(s.CallerID) || match(s.Comment) || match(s.Name) {
			return s.Name, common.NormalizeMAC(s.CallerID)
		}
	}
	return "", ""
}

// displayName resolves a human-facing name for the subscriber. The
// username itself is never used: it is an account handle, not a name.
func (m *matcher) displayName(username, routerMAC string) string {
	if l, ok := m.leaseByMAC[routerMAC]; ok {
		if h := cleanName(l.HostName); h != "" {
			return h
		}
	}
	if a, ok := m.arpByMAC[routerMAC]; ok {
		if c := cleanName(a.Comment); c != "" {
			return c
		}
	}
	for i := range m.snap.Secrets {
		s := &m.snap.Secrets[i]
		if s.Name != username {
			continue
		}
		if c := cleanName(s.Comment); c != "" {
			return c
		}
		break
	}
	if v := OUIVendor(routerMAC); v != "" {
		return v
	}
	return ""
}

// cleanName strips tagger metadata and rejects values that are not
// human names (empty, pure hex, embedded key=value noise).
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// drop machine-tag segments like "OLT:core-1 0/1:2 SN:..."
	if i := strings.Index(s, "OLT:"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" || strings.ContainsAny(s, "=") {
		return ""
	}
	if common.NormalizeMAC(s) != "" {
		return ""
	}
	return s
}

