package sqlstore

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/forgo/accord/internal/model"
)

type partnershipRow struct {
	ID               string    `gorm:"primaryKey;size:191"`
	ProfileType      string    `gorm:"size:32;not null"`
	City             string    `gorm:"size:191"`
	MembershipTier   string    `gorm:"size:64"`
	SurveyCompletion float64   `gorm:"not null;default:0;index:idx_partnership_eligibility,priority:2"`
	Status           string    `gorm:"size:32;not null;index:idx_partnership_eligibility,priority:1"`
	CreatedOn        time.Time `gorm:"not null"`
	UpdatedOn        time.Time `gorm:"not null"`
}

func (partnershipRow) TableName() string { return "partnership" }

func partnershipFromModel(p *model.Partnership) partnershipRow {
	return partnershipRow{
		ID:               p.ID,
		ProfileType:      string(p.ProfileType),
		City:             p.City,
		MembershipTier:   p.MembershipTier,
		SurveyCompletion: p.SurveyCompletion,
		Status:           string(p.Status),
		CreatedOn:        p.CreatedOn.UTC(),
		UpdatedOn:        p.UpdatedOn.UTC(),
	}
}

func (r partnershipRow) toModel() *model.Partnership {
	return &model.Partnership{
		ID:               r.ID,
		ProfileType:      model.ProfileType(r.ProfileType),
		City:             r.City,
		MembershipTier:   r.MembershipTier,
		SurveyCompletion: r.SurveyCompletion,
		Status:           model.PartnershipStatus(r.Status),
		CreatedOn:        r.CreatedOn.UTC(),
		UpdatedOn:        r.UpdatedOn.UTC(),
	}
}

type surveyAnswersRow struct {
	PartnershipID string         `gorm:"primaryKey;size:191"`
	Answers       datatypes.JSON `gorm:"not null"`
	UpdatedOn     time.Time      `gorm:"not null"`
}

func (surveyAnswersRow) TableName() string { return "survey_answers" }

type computedMatchRow struct {
	PairKey      string         `gorm:"primaryKey;size:64"`
	PartnershipA string         `gorm:"size:191;not null;uniqueIndex:idx_computed_match_pair,priority:1"`
	PartnershipB string         `gorm:"size:191;not null;uniqueIndex:idx_computed_match_pair,priority:2;index"`
	OverallScore float64        `gorm:"not null"`
	Tier         string         `gorm:"size:16;not null"`
	Categories   datatypes.JSON `gorm:"not null"`
	ComputedOn   time.Time      `gorm:"not null"`
}

func (computedMatchRow) TableName() string { return "computed_match" }

func (r computedMatchRow) toModel() (*model.ComputedMatch, error) {
	m := &model.ComputedMatch{
		ID:           r.PairKey,
		PartnershipA: r.PartnershipA,
		PartnershipB: r.PartnershipB,
		OverallScore: r.OverallScore,
		Tier:         model.Tier(r.Tier),
		ComputedOn:   r.ComputedOn.UTC(),
	}
	if len(r.Categories) > 0 {
		if err := json.Unmarshal(r.Categories, &m.Categories); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type signalRow struct {
	ID              string    `gorm:"primaryKey;size:64"`
	FromPartnership string    `gorm:"size:191;not null;uniqueIndex:idx_signal_direction,priority:1"`
	ToPartnership   string    `gorm:"size:191;not null;uniqueIndex:idx_signal_direction,priority:2"`
	CreatedOn       time.Time `gorm:"not null"`
}

func (signalRow) TableName() string { return "signal" }

func (r signalRow) toModel() *model.Signal {
	return &model.Signal{
		ID:              r.ID,
		FromPartnership: r.FromPartnership,
		ToPartnership:   r.ToPartnership,
		CreatedOn:       r.CreatedOn.UTC(),
	}
}

type handshakeRow struct {
	ID           string `gorm:"primaryKey;size:64"`
	PartnershipA string `gorm:"size:191;not null;uniqueIndex:idx_handshake_pair,priority:1"`
	PartnershipB string `gorm:"size:191;not null;uniqueIndex:idx_handshake_pair,priority:2"`
	AConsent     bool   `gorm:"not null;default:false"`
	BConsent     bool   `gorm:"not null;default:false"`
	State        string `gorm:"size:16;not null;index:idx_handshake_state,priority:1"`
	InitiatedBy  string `gorm:"size:191"`
	MatchedOn    *time.Time
	CreatedOn    time.Time `gorm:"not null;index:idx_handshake_state,priority:2"`
	UpdatedOn    time.Time `gorm:"not null"`
	Version      int       `gorm:"not null;default:1"`
}

func (handshakeRow) TableName() string { return "handshake" }

func handshakeFromModel(h *model.Handshake) handshakeRow {
	row := handshakeRow{
		ID:           h.ID,
		PartnershipA: h.PartnershipA,
		PartnershipB: h.PartnershipB,
		AConsent:     h.AConsent,
		BConsent:     h.BConsent,
		State:        string(h.State),
		InitiatedBy:  h.InitiatedBy,
		CreatedOn:    h.CreatedOn.UTC(),
		UpdatedOn:    h.UpdatedOn.UTC(),
		Version:      1,
	}
	if h.MatchedOn != nil {
		t := h.MatchedOn.UTC()
		row.MatchedOn = &t
	}
	return row
}

func (r handshakeRow) toModel() *model.Handshake {
	h := &model.Handshake{
		ID:           r.ID,
		PartnershipA: r.PartnershipA,
		PartnershipB: r.PartnershipB,
		AConsent:     r.AConsent,
		BConsent:     r.BConsent,
		State:        model.HandshakeState(r.State),
		InitiatedBy:  r.InitiatedBy,
		CreatedOn:    r.CreatedOn.UTC(),
		UpdatedOn:    r.UpdatedOn.UTC(),
	}
	if r.MatchedOn != nil {
		t := r.MatchedOn.UTC()
		h.MatchedOn = &t
	}
	return h
}
