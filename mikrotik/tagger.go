package mikrotik

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nanoncore/nano-fleetmon/vendors/common"

	"github.com/nanoncore/nano-fleetmon/types"
)

// TagMode controls what happens to a field that already has content
type TagMode string

const (
	TagAppend    TagMode = "append"
	TagOverwrite TagMode = "overwrite"
	TagEmptyOnly TagMode = "empty_only"
)

// TagTarget selects which secret fields receive the device tag
type TagTarget string

const (
	TargetComment  TagTarget = "comment"
	TargetCallerID TagTarget = "caller-id"
	TargetBoth     TagTarget = "both"
)

// TagPolicy is the operator-chosen bulk tagging behavior
type TagPolicy struct {
	Mode   TagMode
	Target TagTarget

	// Delay between router writes; embedded control planes throttle
	// badly under write bursts (default 500ms)
	Delay time.Duration
}

// TagResult summarizes one bulk tagging run
type TagResult struct {
	Matched int
	Updated int
	Skipped int
	Errors  []string
}

// BulkTagSecrets walks the router's secrets, matches each against the
// polled ONU records at reduced precision (direct MAC/serial equality,
// then serial-in-comment, then name/username overlap) and writes device
// tags per the policy. Items are processed sequentially with a fixed
// inter-item delay.
func (c *Client) BulkTagSecrets(ctx context.Context, deviceName string, records []*types.ONURecord, policy TagPolicy) (*TagResult, error) {
	if policy.Delay == 0 {
		policy.Delay = 500 * time.Millisecond
	}

	secrets, err := c.Secrets(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("bulk tag: %w", err)
	}

	result := &TagResult{}
	for _, secret := range secrets {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		record := matchSecret(secret, records)
		if record == nil {
			continue
		}
		result.Matched++

		tag := deviceTag(deviceName, record)
		fields := buildTagFields(secret, record, tag, policy)
		if len(fields) == 0 {
			result.Skipped++
			continue
		}

		if err := c.UpdateSecret(ctx, secret.InternalID, fields); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", secret.Name, err))
		} else {
			result.Updated++
		}

		select {
		case <-time.After(policy.Delay):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}

	return result, nil
}

// deviceTag is the identifier written into tagged secrets
func deviceTag(deviceName string, r *types.ONURecord) string {
	return fmt.Sprintf("OLT:%s %s:%d SN:%s", deviceName, r.PONPort, r.ONUIndex, r.SerialNumber)
}

// matchSecret finds the ONU record a secret belongs to, using the same
// cascade as enrichment at reduced precision.
func matchSecret(secret types.Secret, records []*types.ONURecord) *types.ONURecord {
	callerID := common.NormalizeMAC(secret.CallerID)
	commentLower := strings.ToLower(secret.Comment)
	nameLower := strings.ToLower(secret.Name)

	// Direct caller-id equality against MAC or serial
	if callerID != "" {
		for _, r := range records {
			if common.NormalizeMAC(r.MACAddress) == callerID {
				return r
			}
			if common.SerialAsMAC(r.SerialNumber) == callerID {
				return r
			}
		}
	}

	// Serial or MAC appearing inside the comment text
	for _, r := range records {
		serial := strings.ToLower(r.SerialNumber)
		if serial != "" && !strings.HasPrefix(serial, "onu-") && strings.Contains(commentLower, serial) {
			return r
		}
		bareMac := strings.ToLower(strings.ReplaceAll(r.MACAddress, ":", ""))
		if bareMac != "" && strings.Contains(strings.ReplaceAll(commentLower, ":", ""), bareMac) {
			return r
		}
	}

	// Name/username overlap, placeholders excluded
	for _, r := range records {
		if types.IsPlaceholderName(r.Name) {
			continue
		}
		rn := strings.ToLower(r.Name)
		if len(rn) >= 4 && (strings.Contains(nameLower, rn) || strings.Contains(rn, nameLower)) {
			return r
		}
	}

	return nil
}

// buildTagFields applies the mode × target policy, returning only the
// fields that actually need writing.
func buildTagFields(secret types.Secret, record *types.ONURecord, tag string, policy TagPolicy) map[string]string {
	fields := make(map[string]string)

	wantComment := policy.Target == TargetComment || policy.Target == TargetBoth
	wantCallerID := policy.Target == TargetCallerID || policy.Target == TargetBoth

	if wantComment {
		if v, ok := applyMode(secret.Comment, tag, policy.Mode); ok {
			fields["comment"] = v
		}
	}
	if wantCallerID && record.MACAddress != "" {
		// caller-id holds the ONU MAC, not the free-text tag
		if v, ok := applyMode(secret.CallerID, common.NormalizeMAC(record.MACAddress), policy.Mode); ok {
			fields["caller-id"] = v
		}
	}

	return fields
}

// applyMode merges the new value into the existing field content per the
// write mode. The second return is false when nothing should be written.
func applyMode(existing, value string, mode TagMode) (string, bool) {
	switch mode {
	case TagOverwrite:
		if existing == value {
			return "", false
		}
		return value, true

	case TagEmptyOnly:
		if strings.TrimSpace(existing) != "" {
			return "", false
		}
		return value, true

	case TagAppend:
		if strings.Contains(existing, value) {
			return "", false
		}
		if strings.TrimSpace(existing) == "" {
			return value, true
		}
		return existing + " | " + value, true

	default:
		return "", false
	}
}
