package profile

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"voicegate/internal/voiceauth/models"
	id "voicegate/pkg/domain"
)

// tokenRecord is the compact wire form of a phoneme token.
type tokenRecord struct {
	Label      string  `msgpack:"l"`
	StartNs    int64   `msgpack:"s"`
	EndNs      int64   `msgpack:"e"`
	Confidence float64 `msgpack:"c"`
}

// enrollmentRecord holds the biometric material of a profile. Postgres stores it
// as a bytea column next to the queryable lifecycle fields.
type enrollmentRecord struct {
	Embeddings [][]float64              `msgpack:"emb"`
	Reference  []tokenRecord            `msgpack:"ref"`
	Samples    [][]tokenRecord          `msgpack:"smp"`
	Diversity  *models.DiversityVerdict `msgpack:"div"`
}

// profileRecord is the full profile, used where the whole value lives under one key.
type profileRecord struct {
	ID                  string           `msgpack:"id"`
	Status              string           `msgpack:"st"`
	Version             int64            `msgpack:"v"`
	Enrollment          enrollmentRecord `msgpack:"en"`
	ConsecutiveFailures int              `msgpack:"cf"`
	Lockouts            int              `msgpack:"lo"`
	LockedUntil         *time.Time       `msgpack:"lu"`
	CreatedAt           time.Time        `msgpack:"ca"`
	UpdatedAt           time.Time        `msgpack:"ua"`
}

func toTokens(seq models.PhonemeSequence) []tokenRecord {
	if seq == nil {
		return nil
	}
	out := make([]tokenRecord, len(seq))
	for i, t := range seq {
		out[i] = tokenRecord{Label: t.Label, StartNs: int64(t.Start), EndNs: int64(t.End), Confidence: t.Confidence}
	}
	return out
}

func fromTokens(recs []tokenRecord) models.PhonemeSequence {
	if recs == nil {
		return nil
	}
	out := make(models.PhonemeSequence, len(recs))
	for i, r := range recs {
		out[i] = models.PhonemeToken{Label: r.Label, Start: time.Duration(r.StartNs), End: time.Duration(r.EndNs), Confidence: r.Confidence}
	}
	return out
}

func toEnrollment(p *models.EnrollmentProfile) enrollmentRecord {
	rec := enrollmentRecord{
		Reference: toTokens(p.ReferencePhonemes),
		Diversity: p.Diversity,
	}
	for _, e := range p.ReferenceEmbeddings {
		rec.Embeddings = append(rec.Embeddings, []float64(e))
	}
	for _, s := range p.PassphraseSamples {
		rec.Samples = append(rec.Samples, toTokens(s))
	}
	return rec
}

func applyEnrollment(p *models.EnrollmentProfile, rec enrollmentRecord) {
	p.ReferenceEmbeddings = nil
	for _, e := range rec.Embeddings {
		p.ReferenceEmbeddings = append(p.ReferenceEmbeddings, models.Embedding(e))
	}
	p.ReferencePhonemes = fromTokens(rec.Reference)
	p.PassphraseSamples = nil
	for _, s := range rec.Samples {
		p.PassphraseSamples = append(p.PassphraseSamples, fromTokens(s))
	}
	p.Diversity = rec.Diversity
}

func encodeEnrollment(p *models.EnrollmentProfile) ([]byte, error) {
	b, err := msgpack.Marshal(toEnrollment(p))
	if err != nil {
		return nil, fmt.Errorf("encode enrollment: %w", err)
	}
	return b, nil
}

func decodeEnrollment(p *models.EnrollmentProfile, raw []byte) error {
	var rec enrollmentRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode enrollment: %w", err)
	}
	applyEnrollment(p, rec)
	return nil
}

func encodeProfile(p *models.EnrollmentProfile) ([]byte, error) {
	rec := profileRecord{
		ID:                  p.ID.String(),
		Status:              string(p.Status),
		Version:             p.Version,
		Enrollment:          toEnrollment(p),
		ConsecutiveFailures: p.Attempts.ConsecutiveFailures,
		Lockouts:            p.Attempts.Lockouts,
		LockedUntil:         p.Attempts.LockedUntil,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	b, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return b, nil
}

func decodeProfile(raw []byte) (*models.EnrollmentProfile, error) {
	var rec profileRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	pid, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, fmt.Errorf("decode profile id: %w", err)
	}
	p := &models.EnrollmentProfile{
		ID:      id.ProfileID(pid),
		Status:  models.ProfileStatus(rec.Status),
		Version: rec.Version,
		Attempts: models.AttemptState{
			ConsecutiveFailures: rec.ConsecutiveFailures,
			Lockouts:            rec.Lockouts,
			LockedUntil:         rec.LockedUntil,
		},
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	applyEnrollment(p, rec.Enrollment)
	return p, nil
}
