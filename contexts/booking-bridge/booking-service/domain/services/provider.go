package services

import (
	"strings"

	"cowbridge/contexts/booking-bridge/booking-service/domain/entities"
)

const hostTagPrefix = "host:"

// VendorOf reads the vendor field of the first line item only.
func VendorOf(order entities.RawOrder) string {
	if len(order.LineItems) == 0 {
		return ""
	}
	return strings.TrimSpace(order.LineItems[0].Vendor)
}

// HostFromMetadata finds the host identity in a product's custom metadata.
// The key match is case-insensitive and accepts the namespaced form
// "custom/host" alongside the bare key.
func HostFromMetadata(metadata map[string]string) string {
	for key, value := range metadata {
		normalized := strings.ToLower(strings.TrimSpace(key))
		normalized = strings.TrimPrefix(normalized, "custom/")
		if normalized == "host" {
			if host := strings.TrimSpace(value); host != "" {
				return host
			}
		}
	}
	return ""
}

// HostFromTags finds the host identity in a product's tag list, tag form
// "host:<value>" with the value trimmed of surrounding whitespace.
func HostFromTags(tags []string) string {
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if len(trimmed) <= len(hostTagPrefix) {
			continue
		}
		if !strings.EqualFold(trimmed[:len(hostTagPrefix)], hostTagPrefix) {
			continue
		}
		if value := strings.TrimSpace(trimmed[len(hostTagPrefix):]); value != "" {
			return value
		}
	}
	return ""
}

// ResolveProvider merges the two provider sources into the canonical identity:
// host wins over vendor when both exist; empty means unresolved. Unresolved
// orders stay in results, they are never dropped.
func ResolveProvider(host, vendor string) string {
	if host != "" {
		return host
	}
	return vendor
}

// MatchesProviderFilter is the query engine's provider predicate: the booking
// matches when the name equals the resolved provider or any line item's
// vendor, case-insensitively. This union is deliberately broader than the
// host-over-vendor precedence used for the canonical Provider field; the two
// rules are distinct and must stay distinct.
func MatchesProviderFilter(booking entities.CanonicalBooking, name string) bool {
	if name == "" {
		return true
	}
	if strings.EqualFold(booking.Provider, name) {
		return true
	}
	for _, item := range booking.LineItems {
		if item.Vendor != "" && strings.EqualFold(item.Vendor, name) {
			return true
		}
	}
	return false
}
