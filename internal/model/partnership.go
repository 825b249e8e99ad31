package model

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ProfileType describes the shape of a partnership
type ProfileType string

const (
	ProfileTypeSolo   ProfileType = "solo"
	ProfileTypeCouple ProfileType = "couple"
	ProfileTypePod    ProfileType = "pod"
)

// PartnershipStatus is a soft lifecycle state; partnerships are never hard-deleted
type PartnershipStatus string

const (
	PartnershipStatusActive      PartnershipStatus = "active"
	PartnershipStatusPaused      PartnershipStatus = "paused"
	PartnershipStatusDeactivated PartnershipStatus = "deactivated"
)

// Partnership is the matching unit: a solo, couple, or pod identity that owns
// one survey and participates in matching.
type Partnership struct {
	ID               string            `json:"id"`
	ProfileType      ProfileType       `json:"profile_type"`
	City             string            `json:"city,omitempty"`
	MembershipTier   string            `json:"membership_tier,omitempty"`
	SurveyCompletion float64           `json:"survey_completion"` // 0-1
	Status           PartnershipStatus `json:"status"`
	CreatedOn        time.Time         `json:"created_on"`
	UpdatedOn        time.Time         `json:"updated_on"`
}

// IsEligible reports whether the partnership can be scored in batch runs
func (p *Partnership) IsEligible(minCompletion float64) bool {
	return p.Status == PartnershipStatusActive && p.SurveyCompletion >= minCompletion
}

// PartnershipPair is an unordered pair of partnership ids held in canonical
// order: A < B under byte-wise string comparison.
type PartnershipPair struct {
	A string `json:"partnership_a"`
	B string `json:"partnership_b"`
}

// NewPartnershipPair returns the canonical pair for x and y regardless of argument order
func NewPartnershipPair(x, y string) PartnershipPair {
	if y < x {
		x, y = y, x
	}
	return PartnershipPair{A: x, B: y}
}

// Key returns a stable identifier for the unordered pair, suitable as a record id
func (p PartnershipPair) Key() string {
	return hashKey("pair", p.A, p.B)
}

// Contains reports whether id is one side of the pair
func (p PartnershipPair) Contains(id string) bool {
	return p.A == id || p.B == id
}

// String renders the pair for logs
func (p PartnershipPair) String() string {
	return p.A + "<>" + p.B
}

// hashKey derives a 128-bit hex key from parts. Each part is length-prefixed,
// so ids containing any character still map to distinct keys.
func hashKey(parts ...string) string {
	buf := make([]byte, 0, 64)
	for _, part := range parts {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(part)))
		buf = append(buf, part...)
	}
	sum := blake2b.Sum256(buf)
	return hex.EncodeToString(sum[:16])
}

// PairsOf returns every canonical pair over ids, in a stable order.
// Duplicate and empty ids are ignored.
func PairsOf(ids []string) []PartnershipPair {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	sort.Strings(unique)

	pairs := make([]PartnershipPair, 0, len(unique)*(len(unique)-1)/2)
	for i := 0; i < len(unique); i++ {
		for j := i + 1; j < len(unique); j++ {
			pairs = append(pairs, PartnershipPair{A: unique[i], B: unique[j]})
		}
	}
	return pairs
}
