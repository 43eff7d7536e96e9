package normalize

import (
	"strconv"
	"time"

	"github.com/caesium-cloud/cimon/internal/models"
)

// ID builds the globally unique record id for a native identifier.
func ID(p models.Provider, native string) string {
	return p.Prefix() + "_" + native
}

// IntID is ID for numeric native identifiers.
func IntID(p models.Provider, native int64) string {
	return ID(p, strconv.FormatInt(native, 10))
}

// JenkinsBuildID joins a job name and build number so builds of different
// jobs never collide.
func JenkinsBuildID(job string, number int) string {
	return ID(models.ProviderJenkins, job+"#"+strconv.Itoa(number))
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseTimePtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	return parseTime(*s)
}

func timeOr(t *time.Time, fallback time.Time) time.Time {
	if t == nil {
		return fallback
	}
	return *t
}

func millis(epoch int64) *time.Time {
	if epoch <= 0 {
		return nil
	}
	t := time.UnixMilli(epoch).UTC()
	return &t
}

func between(start, end *time.Time) *int64 {
	if start == nil || end == nil || end.Before(*start) {
		return nil
	}
	d := end.Sub(*start).Milliseconds()
	return &d
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// finish enforces that only terminal builds carry a finish time and duration.
func finish(b *models.Build) *models.Build {
	if !b.Status.Terminal() {
		b.FinishedAt = nil
		b.Duration = nil
	} else if b.FinishedAt == nil {
		b.Duration = nil
	}
	return b
}
