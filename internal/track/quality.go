package track

import (
	"fmt"
	"strings"
)

// Quality is a requested audio quality tier.
type Quality int

const (
	QualityNormal Quality = iota
	QualityHigh
	QualityVeryHigh
)

func (q Quality) String() string {
	switch q {
	case QualityNormal:
		return "normal"
	case QualityHigh:
		return "high"
	case QualityVeryHigh:
		return "very_high"
	default:
		return "unknown"
	}
}

// ParseQuality maps a config/flag string to a [Quality] tier.
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "low":
		return QualityNormal, nil
	case "high":
		return QualityHigh, nil
	case "very_high", "veryhigh", "very-high":
		return QualityVeryHigh, nil
	default:
		return QualityNormal, fmt.Errorf("unknown quality tier %q", s)
	}
}

// tier maps each tier to its format per family. Vorbis first, then MP3, then AAC.
var vorbisTier = map[Quality]Format{
	QualityNormal:   OggVorbis96,
	QualityHigh:     OggVorbis160,
	QualityVeryHigh: OggVorbis320,
}

var mp3Tier = map[Quality]Format{
	QualityNormal:   MP3_96,
	QualityHigh:     MP3_160,
	QualityVeryHigh: MP3_320,
}

var aacTier = map[Quality]Format{
	QualityNormal:   AAC24,
	QualityHigh:     AAC24,
	QualityVeryHigh: AAC48,
}

// QualityPolicy selects at most one [AudioFile] from a descriptor set.
//
// Selection is deterministic: for a given policy and descriptor sequence the
// same descriptor is always chosen. When no descriptor satisfies the
// requested tier and fallback is disabled, selection fails rather than
// silently picking another tier.
type QualityPolicy struct {
	Tier          Quality
	VorbisOnly    bool // restrict matching to OGG Vorbis formats
	AllowFallback bool // permit descending through lower tiers
}

// Select applies the policy to the descriptor set.
//
// The boolean result is false when nothing matched.
func (p QualityPolicy) Select(files []AudioFile) (AudioFile, bool) {
	tiers := []Quality{p.Tier}
	if p.AllowFallback {
		for t := p.Tier - 1; t >= QualityNormal; t-- {
			tiers = append(tiers, t)
		}
	}

	for _, tier := range tiers {
		if f, ok := matchTier(files, tier, p.VorbisOnly); ok {
			return f, true
		}
	}

	return AudioFile{}, false
}

func matchTier(files []AudioFile, tier Quality, vorbisOnly bool) (AudioFile, bool) {
	wanted := []Format{vorbisTier[tier]}
	if !vorbisOnly {
		wanted = append(wanted, mp3Tier[tier], aacTier[tier])
	}

	for _, w := range wanted {
		for _, f := range files {
			if f.Format == w {
				return f, true
			}
		}
	}

	return AudioFile{}, false
}
