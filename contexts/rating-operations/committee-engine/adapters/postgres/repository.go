package postgresadapter

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meridian/contexts/rating-operations/committee-engine/domain/entities"
	domainerrors "meridian/contexts/rating-operations/committee-engine/domain/errors"
	"meridian/contexts/rating-operations/committee-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Atomic runs fn inside one serializable transaction. Concurrent ballots on
// the same instrument abort with ErrConcurrencyConflict rather than both
// publishing a consensus.
func (r *Repository) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if isSerializationFailure(err) || isUniqueViolation(err) {
		return domainerrors.ErrConcurrencyConflict
	}
	return err
}

func (r *Repository) handle(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *Repository) SaveMeeting(ctx context.Context, meeting entities.Meeting) error {
	row := meetingModelFromEntity(meeting)
	err := r.handle(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("committee_repo_save_meeting_failed", err,
			"meeting_id", meeting.MeetingID,
		)
	}
	return nil
}

func (r *Repository) GetMeeting(ctx context.Context, meetingID string) (entities.Meeting, error) {
	var row meetingModel
	err := r.handle(ctx).
		Where("id = ?", strings.TrimSpace(meetingID)).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Meeting{}, domainerrors.ErrMeetingNotFound
		}
		return entities.Meeting{}, r.logError("committee_repo_get_meeting_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListMeetings(ctx context.Context) ([]entities.Meeting, error) {
	var rows []meetingModel
	err := r.handle(ctx).
		Where("is_active = ?", true).
		Order("meeting_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("committee_repo_list_meetings_failed", err)
	}
	out := make([]entities.Meeting, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *Repository) SaveMember(ctx context.Context, member entities.Member) error {
	row := memberModel{
		MeetingID: strings.TrimSpace(member.MeetingID),
		MemberID:  strings.TrimSpace(member.MemberID),
		Chairman:  member.Chairman,
		Active:    member.Active,
	}
	err := r.handle(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "member_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("committee_repo_save_member_failed", err,
			"meeting_id", member.MeetingID,
			"member_id", member.MemberID,
		)
	}
	return nil
}

func (r *Repository) GetMember(ctx context.Context, meetingID string, memberID string) (entities.Member, bool, error) {
	var row memberModel
	err := r.handle(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, false, nil
		}
		return entities.Member{}, false, r.logError("committee_repo_get_member_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListActiveMembers(ctx context.Context, meetingID string) ([]entities.Member, error) {
	var rows []memberModel
	err := r.handle(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("is_active = ?", true).
		Order("member_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("committee_repo_list_active_members_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	out := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *Repository) SaveBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	err := r.handle(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("committee_repo_save_ballot_failed", err,
			"ballot_id", ballot.BallotID,
			"meeting_id", ballot.MeetingID,
		)
	}
	return nil
}

func (r *Repository) GetBallotByIdentity(ctx context.Context, meetingID string, instrumentDetailID string, memberID string) (entities.Ballot, bool, error) {
	var row ballotModel
	err := r.handle(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("instrument_detail_id = ?", strings.TrimSpace(instrumentDetailID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, false, nil
		}
		return entities.Ballot{}, false, r.logError("committee_repo_get_ballot_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListBallots(ctx context.Context, meetingID string, instrumentDetailID string) ([]entities.Ballot, error) {
	var rows []ballotModel
	err := r.handle(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("instrument_detail_id = ?", strings.TrimSpace(instrumentDetailID)).
		Where("is_active = ?", true).
		Order("created_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("committee_repo_list_ballots_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
			"instrument_detail_id", strings.TrimSpace(instrumentDetailID),
		)
	}
	out := make([]entities.Ballot, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *Repository) UpsertConsensus(ctx context.Context, result entities.ConsensusResult) error {
	row := consensusModelFromEntity(result)
	err := r.handle(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "instrument_detail_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("committee_repo_upsert_consensus_failed", err,
			"instrument_detail_id", result.InstrumentDetailID,
		)
	}
	return nil
}

func (r *Repository) GetConsensus(ctx context.Context, instrumentDetailID string) (entities.ConsensusResult, bool, error) {
	var row consensusModel
	err := r.handle(ctx).
		Where("instrument_detail_id = ?", strings.TrimSpace(instrumentDetailID)).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.ConsensusResult{}, false, nil
		}
		return entities.ConsensusResult{}, false, r.logError("committee_repo_get_consensus_failed", err,
			"instrument_detail_id", strings.TrimSpace(instrumentDetailID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveRegister(ctx context.Context, entry entities.RegisterEntry) error {
	row := registerModelFromEntity(entry)
	err := r.handle(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		return r.logError("committee_repo_save_register_failed", err,
			"register_id", entry.RegisterID,
			"meeting_id", entry.MeetingID,
		)
	}
	return nil
}

func (r *Repository) GetRegister(ctx context.Context, meetingID string, instrumentDetailID string) (entities.RegisterEntry, error) {
	var row registerModel
	err := r.handle(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("instrument_detail_id = ?", strings.TrimSpace(instrumentDetailID)).
		Where("is_active = ?", true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.RegisterEntry{}, domainerrors.ErrRegisterNotFound
		}
		return entities.RegisterEntry{}, r.logError("committee_repo_get_register_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
			"instrument_detail_id", strings.TrimSpace(instrumentDetailID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListRegistersByMandate(ctx context.Context, mandateID string) ([]entities.RegisterEntry, error) {
	var rows []registerModel
	err := r.handle(ctx).
		Where("mandate_id = ?", strings.TrimSpace(mandateID)).
		Order("created_at ASC, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("committee_repo_list_registers_failed", err,
			"mandate_id", strings.TrimSpace(mandateID),
		)
	}
	out := make([]entities.RegisterEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "rating-operations/committee-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("committee repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

type meetingModel struct {
	ID              string    `gorm:"column:id;primaryKey"`
	CommitteeTypeID string    `gorm:"column:committee_type_id"`
	CategoryID      string    `gorm:"column:category_id"`
	MeetingAt       time.Time `gorm:"column:meeting_at"`
	Status          string    `gorm:"column:status"`
	NumberOfCases   int       `gorm:"column:number_of_cases"`
	Active          bool      `gorm:"column:is_active"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (meetingModel) TableName() string {
	return "rating_committee_meetings"
}

func meetingModelFromEntity(meeting entities.Meeting) meetingModel {
	return meetingModel{
		ID:              strings.TrimSpace(meeting.MeetingID),
		CommitteeTypeID: meeting.CommitteeTypeID,
		CategoryID:      meeting.CategoryID,
		MeetingAt:       meeting.MeetingAt,
		Status:          string(meeting.Status),
		NumberOfCases:   meeting.NumberOfCases,
		Active:          meeting.Active,
		CreatedAt:       meeting.CreatedAt,
		UpdatedAt:       meeting.UpdatedAt,
	}
}

func (m meetingModel) toEntity() entities.Meeting {
	return entities.Meeting{
		MeetingID:       m.ID,
		CommitteeTypeID: m.CommitteeTypeID,
		CategoryID:      m.CategoryID,
		MeetingAt:       m.MeetingAt,
		Status:          entities.MeetingStatus(m.Status),
		NumberOfCases:   m.NumberOfCases,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

type memberModel struct {
	MeetingID string `gorm:"column:meeting_id;primaryKey"`
	MemberID  string `gorm:"column:member_id;primaryKey"`
	Chairman  bool   `gorm:"column:is_chairman"`
	Active    bool   `gorm:"column:is_active"`
}

func (memberModel) TableName() string {
	return "meeting_has_members"
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		MemberID:  m.MemberID,
		MeetingID: m.MeetingID,
		Chairman:  m.Chairman,
		Active:    m.Active,
	}
}

type ballotModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	InstrumentDetailID string    `gorm:"column:instrument_detail_id"`
	MemberID           string    `gorm:"column:member_id"`
	MeetingID          string    `gorm:"column:meeting_id"`
	Rating             string    `gorm:"column:rating"`
	Outlook            string    `gorm:"column:outlook"`
	Weightage          float64   `gorm:"column:weightage"`
	Dissent            bool      `gorm:"column:is_dissent"`
	DissentRemark      string    `gorm:"column:dissent_remark"`
	Chairman           bool      `gorm:"column:is_chairman"`
	Active             bool      `gorm:"column:is_active"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (ballotModel) TableName() string {
	return "rating_committee_votings"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		ID:                 strings.TrimSpace(ballot.BallotID),
		InstrumentDetailID: strings.TrimSpace(ballot.InstrumentDetailID),
		MemberID:           strings.TrimSpace(ballot.MemberID),
		MeetingID:          strings.TrimSpace(ballot.MeetingID),
		Rating:             ballot.Rating,
		Outlook:            ballot.Outlook,
		Weightage:          ballot.Weightage,
		Dissent:            ballot.Dissent,
		DissentRemark:      ballot.DissentRemark,
		Chairman:           ballot.Chairman,
		Active:             ballot.Active,
		CreatedAt:          ballot.CreatedAt,
		UpdatedAt:          ballot.UpdatedAt,
	}
}

func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:           m.ID,
		InstrumentDetailID: m.InstrumentDetailID,
		MemberID:           m.MemberID,
		MeetingID:          m.MeetingID,
		Rating:             m.Rating,
		Outlook:            m.Outlook,
		Weightage:          m.Weightage,
		Dissent:            m.Dissent,
		DissentRemark:      m.DissentRemark,
		Chairman:           m.Chairman,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

type consensusModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	InstrumentDetailID string    `gorm:"column:instrument_detail_id;uniqueIndex"`
	MeetingID          string    `gorm:"column:meeting_id"`
	Rating             string    `gorm:"column:rating"`
	Outlook            string    `gorm:"column:outlook"`
	Active             bool      `gorm:"column:is_active"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (consensusModel) TableName() string {
	return "rating_committee_voting_metadata"
}

func consensusModelFromEntity(result entities.ConsensusResult) consensusModel {
	return consensusModel{
		ID:                 strings.TrimSpace(result.ResultID),
		InstrumentDetailID: strings.TrimSpace(result.InstrumentDetailID),
		MeetingID:          strings.TrimSpace(result.MeetingID),
		Rating:             result.Rating,
		Outlook:            result.Outlook,
		Active:             result.Active,
		CreatedAt:          result.CreatedAt,
		UpdatedAt:          result.UpdatedAt,
	}
}

func (m consensusModel) toEntity() entities.ConsensusResult {
	return entities.ConsensusResult{
		ResultID:           m.ID,
		InstrumentDetailID: m.InstrumentDetailID,
		MeetingID:          m.MeetingID,
		Rating:             m.Rating,
		Outlook:            m.Outlook,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

type registerModel struct {
	ID                 string `gorm:"column:id;primaryKey"`
	MeetingID          string `gorm:"column:rating_committee_meeting_id"`
	MandateID          string `gorm:"column:mandate_id"`
	InstrumentDetailID string `gorm:"column:instrument_detail_id"`
	InstrumentText     string `gorm:"column:instrument_text"`
	PreviousRating     string `gorm:"column:previous_rating"`
	// Column spelling is historical; downstream reports query it as is.
	AssignedRating  string    `gorm:"column:long_term_rating_assgined_text"`
	AssignedOutlook string    `gorm:"column:long_term_outlook"`
	RatingAction    string    `gorm:"column:rating_action"`
	VotingStatus    string    `gorm:"column:overall_status"`
	Active          bool      `gorm:"column:is_active"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (registerModel) TableName() string {
	return "rating_committee_meeting_registers"
}

func registerModelFromEntity(entry entities.RegisterEntry) registerModel {
	return registerModel{
		ID:                 strings.TrimSpace(entry.RegisterID),
		MeetingID:          strings.TrimSpace(entry.MeetingID),
		MandateID:          strings.TrimSpace(entry.MandateID),
		InstrumentDetailID: strings.TrimSpace(entry.InstrumentDetailID),
		InstrumentText:     entry.InstrumentText,
		PreviousRating:     entry.PreviousRating,
		AssignedRating:     entry.AssignedRating,
		AssignedOutlook:    entry.AssignedOutlook,
		RatingAction:       entry.RatingAction,
		VotingStatus:       entry.VotingStatus,
		Active:             entry.Active,
		CreatedAt:          entry.CreatedAt,
		UpdatedAt:          entry.UpdatedAt,
	}
}

func (m registerModel) toEntity() entities.RegisterEntry {
	return entities.RegisterEntry{
		RegisterID:         m.ID,
		MeetingID:          m.MeetingID,
		MandateID:          m.MandateID,
		InstrumentDetailID: m.InstrumentDetailID,
		InstrumentText:     m.InstrumentText,
		PreviousRating:     m.PreviousRating,
		AssignedRating:     m.AssignedRating,
		AssignedOutlook:    m.AssignedOutlook,
		RatingAction:       m.RatingAction,
		VotingStatus:       m.VotingStatus,
		Active:             m.Active,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

var _ ports.CommitteeRepository = (*Repository)(nil)
var _ ports.Atomic = (*Repository)(nil)
